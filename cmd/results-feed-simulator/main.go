package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/feed-simulator/sim"
	"github.com/radieske/sports-hub-poc/internal/shared/config"
	"github.com/radieske/sports-hub-poc/internal/shared/logger"
	"github.com/radieske/sports-hub-poc/internal/shared/metrics"
)

// Métricas Prometheus das requisições atendidas pelo simulador
var (
	bootstrapServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_sim_bootstrap_requests_total",
		Help: "Requisições a /bootstrap-static/",
	})
	fixturesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_sim_fixtures_requests_total",
		Help: "Requisições a /fixtures/",
	})
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	cfg := config.Load()
	log, err := logger.New("results-feed-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(bootstrapServed, fixturesServed)

	// Mundo simulado: calendário de partidas que progridem com o relógio
	world := sim.NewWorld(time.Now().UnixNano(), nil)

	appMux := http.NewServeMux()
	appMux.HandleFunc("/bootstrap-static/", func(w http.ResponseWriter, r *http.Request) {
		bootstrapServed.Inc()
		writeJSON(w, world.Bootstrap())
	})
	appMux.HandleFunc("/fixtures/", func(w http.ResponseWriter, r *http.Request) {
		fixturesServed.Inc()
		writeJSON(w, world.Fixtures())
	})

	// Servidor de métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return nil
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Servidor público com as rotas no formato do feed real
	addr := ":" + cfg.HTTPPort
	log.Info("results feed simulator running",
		zap.String("addr", addr),
		zap.String("paths", "/bootstrap-static/,/fixtures/"),
	)
	if err := http.ListenAndServe(addr, appMux); err != nil && err != http.ErrServerClosed {
		log.Fatal("public server error", zap.Error(err))
	}
}
