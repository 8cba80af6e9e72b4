package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PubSubChannel define o canal Redis Pub/Sub de broadcast de mercados
const PubSubChannel = "market_updates_broadcast"

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis Pub/Sub
// e repassa as atualizações recebidas aos clientes WebSocket via Hub
//
// Funcionamento:
// - Recebe mensagens JSON do canal Redis (publicadas pelo projetor)
// - Desserializa para MarketUpdate
// - Chama hub.Broadcast para entregar aos clientes inscritos no mercado
func StartRedisSubscriber(ctx context.Context, r *redis.Client, hub *Hub, log *zap.Logger) {
	sub := r.Subscribe(ctx, PubSubChannel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var upd MarketUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
					log.Warn("ws subscriber unmarshal error", zap.Error(err))
					continue
				}
				hub.Broadcast(upd) // entrega a atualização aos clientes inscritos
			}
		}
	}()
}
