package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/market-projector/cache"
	"github.com/radieske/sports-hub-poc/internal/market-projector/pubsub"
	skafka "github.com/radieske/sports-hub-poc/internal/shared/kafka"
	"github.com/radieske/sports-hub-poc/pkg/contracts/events"
)

// Processor consome os tópicos market_snapshots e settlement_events, mantém o
// cache Redis de mercados e reenvia os updates pelo Pub/Sub para o WebSocket.
// Uma mensagem ruim é pulada; nenhum item aborta o loop.
type Processor struct {
	Log         *zap.Logger
	Snapshots   *kafka.Reader
	Settlements *kafka.Reader
	Cache       *cache.RedisCache
	Broadcaster *pubsub.RedisBroadcaster
	Channel     string

	OnConsumed func(topic string) // métricas (counter++)
	OnCached   func()             // métricas
	OnError    func(stage string) // métricas por fase
}

// Run inicia os dois loops de consumo; retorna quando o contexto for cancelado
func (p *Processor) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() { errCh <- p.consumeSnapshots(ctx) }()
	go func() { errCh <- p.consumeSettlements(ctx) }()

	// Primeiro loop a sair derruba o processor
	return <-errCh
}

func (p *Processor) consumeSnapshots(ctx context.Context) error {
	for {
		_, raw, err := skafka.ReadNext(ctx, p.Snapshots)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.String("topic", "snapshots"), zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed("snapshots")
		}

		var snap events.MarketSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			p.Log.Warn("invalid snapshot message", zap.Error(err))
			p.fail("decode")
			continue
		}

		if err := p.Cache.SetCurrent(ctx, snap); err != nil {
			p.Log.Warn("redis set failed", zap.Error(err))
			p.fail("cache")
			// broadcast segue mesmo com cache falho
		} else if p.OnCached != nil {
			p.OnCached()
		}

		p.broadcast(ctx, pubsub.WSUpdate{
			ExternalID: snap.ExternalID,
			Kind:       pubsub.KindSnapshot,
			Payload:    snap,
		})
	}
}

func (p *Processor) consumeSettlements(ctx context.Context) error {
	for {
		_, raw, err := skafka.ReadNext(ctx, p.Settlements)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.String("topic", "settlements"), zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed("settlements")
		}

		var ev events.SettlementEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			p.Log.Warn("invalid settlement message", zap.Error(err))
			p.fail("decode")
			continue
		}

		// Mercado recolhido sai do cache; o resto só invalida na próxima Display
		if ev.Type == events.SettlementMarketRetired && ev.ExternalID > 0 {
			if err := p.Cache.Delete(ctx, ev.ExternalID); err != nil {
				p.Log.Warn("redis delete failed", zap.Error(err))
				p.fail("cache")
			}
		}

		p.broadcast(ctx, pubsub.WSUpdate{
			ExternalID: ev.ExternalID,
			Kind:       pubsub.KindSettlement,
			Payload:    ev,
		})
	}
}

func (p *Processor) broadcast(ctx context.Context, u pubsub.WSUpdate) {
	b, _ := json.Marshal(u)
	bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := p.Broadcaster.Publish(bctx, p.Channel, b); err != nil {
		p.Log.Warn("ws broadcast publish failed", zap.Error(err))
		p.fail("broadcast")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
