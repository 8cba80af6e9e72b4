package producer

import (
	"context"
	"encoding/json"
	"time"

	skafka "github.com/radieske/sports-hub-poc/internal/shared/kafka"
	"github.com/radieske/sports-hub-poc/pkg/contracts/events"
)

// KafkaPublisher publica transições do ledger no tópico settlement_events
type KafkaPublisher struct {
	Writer *skafka.Writer
	Topic  string
}

func NewKafkaPublisher(w *skafka.Writer, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) PublishSettlement(ctx context.Context, e events.SettlementEvent) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return skafka.WriteJSON(ctx, p.Writer, e.EventID, b)
}
