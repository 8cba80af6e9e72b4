package httpapi

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/sports-hub-poc/internal/market-view/cache"
	"github.com/radieske/sports-hub-poc/internal/market-view/dto"
	"github.com/radieske/sports-hub-poc/internal/market-view/repo"
	"github.com/radieske/sports-hub-poc/pkg/contracts/events"
)

// API expõe os endpoints REST de consulta de mercados parimutuel
// Consulta primeiro o cache (Redis, alimentado pelo projetor) e
// recorre ao banco do ledger em cache miss
type API struct {
	ReadRepo *repo.ReadRepo // acesso somente leitura ao banco do ledger
	Cache    *cache.Cache   // snapshots correntes dos mercados
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/markets", a.listMarkets)    // Lista todos os mercados
	r.Get("/v1/markets/{id}", a.getMarket) // Detalhe de um mercado
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// listMarkets retorna todos os mercados conhecidos pelo ledger
func (a *API) listMarkets(w http.ResponseWriter, r *http.Request) {
	mk, err := a.ReadRepo.ListMarkets(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if mk == nil {
		mk = []dto.Market{}
	}
	writeJSON(w, http.StatusOK, mk)
}

// getMarket retorna um mercado pelo externalId, preferencialmente do cache
func (a *API) getMarket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid market id"})
		return
	}

	var snap events.MarketSnapshot
	if ok, _ := a.Cache.GetMarket(r.Context(), id, &snap); ok {
		writeJSON(w, http.StatusOK, marketFromSnapshot(snap))
		return
	}

	m, err := a.ReadRepo.GetMarket(r.Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	_ = a.Cache.SetMarket(r.Context(), id, snapshotFromMarket(m), 30*time.Second) // salva no cache por 30s
	writeJSON(w, http.StatusOK, m)
}

// marketFromSnapshot converte o snapshot do cache na visão pública
func marketFromSnapshot(s events.MarketSnapshot) dto.Market {
	return dto.Market{
		ExternalID: s.ExternalID,
		EventID:    s.EventID,
		TeamA:      s.TeamA,
		TeamB:      s.TeamB,
		StartTime:  s.StartTime,
		PoolACents: s.PoolACents,
		PoolBCents: s.PoolBCents,
		DrawCents:  s.DrawCents,
		TotalCents: s.TotalCents,
		Resolved:   s.Resolved,
		Winning:    s.Winning,
	}
}

// snapshotFromMarket preenche o cache no formato gravado pelo projetor
func snapshotFromMarket(m dto.Market) events.MarketSnapshot {
	return events.MarketSnapshot{
		ExternalID: m.ExternalID,
		EventID:    m.EventID,
		TeamA:      m.TeamA,
		TeamB:      m.TeamB,
		StartTime:  m.StartTime,
		PoolACents: m.PoolACents,
		PoolBCents: m.PoolBCents,
		DrawCents:  m.DrawCents,
		TotalCents: m.TotalCents,
		Resolved:   m.Resolved,
		Winning:    m.Winning,
		CapturedAt: time.Now().UTC(),
		Source:     "market-view-service",
	}
}
