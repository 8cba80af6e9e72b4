package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	sharedcache "github.com/radieske/sports-hub-poc/internal/shared/cache"
	"github.com/radieske/sports-hub-poc/internal/shared/config"
	"github.com/radieske/sports-hub-poc/internal/shared/db"
	"github.com/radieske/sports-hub-poc/internal/shared/logger"
	"github.com/radieske/sports-hub-poc/internal/shared/metrics"

	vcache "github.com/radieske/sports-hub-poc/internal/market-view/cache"
	vhttp "github.com/radieske/sports-hub-poc/internal/market-view/http"
	vrepo "github.com/radieske/sports-hub-poc/internal/market-view/repo"
	"github.com/radieske/sports-hub-poc/internal/market-view/ws"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("market-view-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "market-view-service"), zap.String("env", cfg.Env))

	// Banco do ledger em modo leitura (fallback de cache miss)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis com os snapshots mantidos pelo projetor
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	api := &vhttp.API{
		ReadRepo: &vrepo.ReadRepo{DB: pg},
		Cache:    vcache.New(redisClient),
	}

	// Hub WebSocket alimentado pelo Redis Pub/Sub do projetor
	hub := ws.NewHub(func(r *http.Request) bool { return true })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ws.StartRedisSubscriber(ctx, redisClient, hub, log)

	// Gauge de assinaturas WS ativas
	subs := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "market_view_ws_subscriptions",
		Help: "Assinaturas WebSocket ativas",
	}, func() float64 { return float64(hub.Subscriptions()) })
	prometheus.MustRegister(subs)

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Servidor público: REST + WebSocket
	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.HandleFunc("/ws", hub.HandleWS)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	log.Info("api listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
