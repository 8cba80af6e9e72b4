package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	sharedcache "github.com/radieske/sports-hub-poc/internal/shared/cache"
	"github.com/radieske/sports-hub-poc/internal/shared/config"
	"github.com/radieske/sports-hub-poc/internal/shared/kafka"
	"github.com/radieske/sports-hub-poc/internal/shared/logger"
	"github.com/radieske/sports-hub-poc/internal/shared/metrics"

	"github.com/radieske/sports-hub-poc/internal/market-projector/cache"
	"github.com/radieske/sports-hub-poc/internal/market-projector/consumer"
	"github.com/radieske/sports-hub-poc/internal/market-projector/pubsub"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("market-projector-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Redis guarda o snapshot corrente de cada mercado
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// TTL folgado: o Display republica a cada ciclo e renova a chave
	rcache := cache.NewRedisCache(redisClient, 24*time.Hour)

	// Consumers Kafka dos dois tópicos (consumer group market-projector)
	snapReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMarketSnapshots, "market-projector")
	defer snapReader.Close()
	settleReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicSettlementEvents, "market-projector")
	defer settleReader.Close()

	// Métricas Prometheus do pipeline de projeção
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "projector_messages_consumed_total", Help: "mensagens consumidas por tópico"}, []string{"topic"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "projector_cache_sets_total", Help: "sets no cache de mercados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "projector_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Snapshots:   snapReader,
		Settlements: settleReader,
		Cache:       rcache,
		Broadcaster: pubsub.NewRedisBroadcaster(redisClient),
		Channel:     cfg.RedisPubSubChannel,

		OnConsumed: func(topic string) { consumed.WithLabelValues(topic).Inc() },
		OnCached:   func() { cached.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("market-projector started")
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("market-projector stopped")
}
