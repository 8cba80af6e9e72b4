package producer

import (
	"context"
	"encoding/json"

	skafka "github.com/radieske/sports-hub-poc/internal/shared/kafka"
	"github.com/radieske/sports-hub-poc/pkg/contracts/events"
)

// KafkaPublisher publica os snapshots da fase Display no tópico market_snapshots
type KafkaPublisher struct {
	Writer *skafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *skafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, s events.MarketSnapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return skafka.WriteJSON(ctx, p.Writer, s.EventID, b)
}
