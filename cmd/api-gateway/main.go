package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/shared/config"
	"github.com/radieske/sports-hub-poc/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New("api-gateway", cfg.Env)
	defer log.Sync()

	// targets
	ledgerURL := os.Getenv("LEDGER_URL")
	if ledgerURL == "" {
		ledgerURL = "http://localhost:8082"
	}
	marketsURL := os.Getenv("MARKETS_URL")
	if marketsURL == "" {
		marketsURL = "http://localhost:8080"
	}
	ledger := rp(ledgerURL)
	markets := rp(marketsURL)

	mux := http.NewServeMux()

	// ledger (ex.: /api/ledger/* -> ledger-service, preservando /ledger/...)
	mux.Handle("/api/ledger/", http.StripPrefix("/api", ledger))

	// mercados (ex.: /api/v1/markets* -> market-view-service)
	mux.Handle("/api/v1/markets", http.StripPrefix("/api", markets))
	mux.Handle("/api/v1/markets/", http.StripPrefix("/api", markets))

	// WebSocket de mercados (o ReverseProxy repassa o upgrade)
	mux.Handle("/ws", markets)

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Signature")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
