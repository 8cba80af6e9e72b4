package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/shared/config"
	"github.com/radieske/sports-hub-poc/internal/shared/kafka"
	"github.com/radieske/sports-hub-poc/internal/shared/logger"
	"github.com/radieske/sports-hub-poc/internal/shared/metrics"

	"github.com/radieske/sports-hub-poc/internal/market-sync/dedup"
	"github.com/radieske/sports-hub-poc/internal/market-sync/engine"
	"github.com/radieske/sports-hub-poc/internal/market-sync/feed"
	"github.com/radieske/sports-hub-poc/internal/market-sync/ledgerclient"
	"github.com/radieske/sports-hub-poc/internal/market-sync/producer"
	"github.com/radieske/sports-hub-poc/internal/market-sync/scheduler"
)

// Depósito inicial do vault da casa quando o worker faz o bootstrap do ledger
const defaultVaultDepositCents = 1_000_000

func main() {
	cfg := config.Load()
	log, err := logger.New("market-sync-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "market-sync-worker"), zap.String("env", cfg.Env))

	// Cliente do feed externo de resultados (formato FPL)
	feedClient := feed.NewClient(cfg.FeedBaseURL, log)

	// Cliente da API de instruções do ledger (rotas admin assinadas)
	ledger := ledgerclient.New(cfg.LedgerURL, cfg.AdminSigningSecret)

	// Writer Kafka para snapshots da fase Display
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketSnapshots)
	defer writer.Close()
	publ := producer.NewKafkaPublisher(writer, cfg.TopicMarketSnapshots)

	// Métricas Prometheus por fase do sync
	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "sync_markets_created_total", Help: "mercados criados no ledger"})
	resolved := prometheus.NewCounter(prometheus.CounterOpts{Name: "sync_markets_resolved_total", Help: "mercados resolvidos no ledger"})
	retired := prometheus.NewCounter(prometheus.CounterOpts{Name: "sync_markets_retired_total", Help: "mercados liquidados e recolhidos"})
	snapshots := prometheus.NewCounter(prometheus.CounterOpts{Name: "sync_snapshots_published_total", Help: "snapshots publicados no Kafka"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sync_errors_total", Help: "erros por estágio"}, []string{"stage"})
	ticks := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sync_phase_ticks_total", Help: "execuções por fase"}, []string{"phase"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sync_phase_skipped_total", Help: "ticks pulados por reentrância"}, []string{"phase"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sync_phase_failed_total", Help: "execuções com erro por fase"}, []string{"phase"})
	prometheus.MustRegister(created, resolved, retired, snapshots, errorsBy, ticks, skipped, failed)

	eng := &engine.Engine{
		Log:    log,
		Feed:   feedClient,
		Ledger: ledger,
		Dedup:  dedup.New(),
		Publ:   publ,

		OnCreated:  func() { created.Inc() },
		OnResolved: func() { resolved.Inc() },
		OnRetired:  func() { retired.Inc() },
		OnSnapshot: func() { snapshots.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return nil // worker sem dependência síncrona: vivo == saudável
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Bootstrap do ledger: garante o vault da casa (conflito == já existe)
	if err := ledger.Initialize(ctx, cfg.AdminOwnerID, vaultDeposit()); err != nil {
		if !errors.Is(err, ledgerclient.ErrConflict) {
			log.Fatal("ledger initialize", zap.Error(err))
		}
		log.Info("vault already initialized")
	}

	// Reaquece os conjuntos de dedup com a verdade do ledger
	eng.WarmDedup(ctx)

	sched := &scheduler.Scheduler{
		Log: log,
		Phases: []*scheduler.Phase{
			{Name: "create", Interval: cfg.SyncCreateInterval, Run: eng.DiscoverAndCreate},
			{Name: "display", Interval: cfg.SyncDisplayInterval, Run: eng.Display},
			{Name: "resolve", Interval: cfg.SyncResolveInterval, Run: eng.Resolve},
			{Name: "settle", Interval: cfg.SyncSettleInterval, Run: eng.SettleAndRetire},
		},
		OnTick:    func(phase string) { ticks.WithLabelValues(phase).Inc() },
		OnSkipped: func(phase string) { skipped.WithLabelValues(phase).Inc() },
		OnFailed:  func(phase string) { failed.WithLabelValues(phase).Inc() },
	}

	log.Info("market-sync started",
		zap.Duration("create_interval", cfg.SyncCreateInterval),
		zap.Duration("display_interval", cfg.SyncDisplayInterval),
		zap.Duration("resolve_interval", cfg.SyncResolveInterval),
		zap.Duration("settle_interval", cfg.SyncSettleInterval),
	)
	sched.Start(ctx)
	log.Info("market-sync stopped")
}

// vaultDeposit lê o depósito inicial do vault da variável de ambiente
func vaultDeposit() int64 {
	if v := os.Getenv("INITIAL_VAULT_DEPOSIT_CENTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultVaultDepositCents
}
