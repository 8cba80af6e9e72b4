package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/shared/config"
	"github.com/radieske/sports-hub-poc/internal/shared/db"
	"github.com/radieske/sports-hub-poc/internal/shared/kafka"
	"github.com/radieske/sports-hub-poc/internal/shared/logger"
	"github.com/radieske/sports-hub-poc/internal/shared/metrics"

	lhttp "github.com/radieske/sports-hub-poc/internal/ledger-service/http"
	"github.com/radieske/sports-hub-poc/internal/ledger-service/producer"
	lrepo "github.com/radieske/sports-hub-poc/internal/ledger-service/repo"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "ledger-service"), zap.String("env", cfg.Env))

	// Conexão com Postgres, onde vivem vault, mercados, apostas e stats
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Writer Kafka para o tópico de eventos de liquidação
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementEvents)
	defer writer.Close()
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicSettlementEvents))

	// Instancia repositório, publisher e servidor HTTP do ledger
	repo := lrepo.NewPostgres(pg, cfg.AdminOwnerID)
	publ := producer.NewKafkaPublisher(writer, cfg.TopicSettlementEvents)
	api := lhttp.NewServer(log, repo, publ, cfg.AdminSigningSecret)

	// Servidor de métricas e health check em goroutine separada
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Servidor HTTP público (API de instruções do ledger)
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
