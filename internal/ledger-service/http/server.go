package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/ledger-service/dto"
	"github.com/radieske/sports-hub-poc/internal/ledger-service/repo"
	"github.com/radieske/sports-hub-poc/internal/ledger-service/sign"
	"github.com/radieske/sports-hub-poc/pkg/contracts/events"
)

// Store define as instruções e consultas do ledger usadas pelos handlers.
// Implementada por repo.Postgres e repo.Memory.
type Store interface {
	Initialize(ctx context.Context, ownerID string, depositCents int64) (*repo.Vault, error)
	CreateEvent(ctx context.Context, externalID int64, teamA, teamB string, startTime time.Time) (*repo.Event, error)
	PlaceBet(ctx context.Context, eventID, playerID string, outcome repo.Outcome, amountCents int64) (*repo.Bet, error)
	ResolveEvent(ctx context.Context, eventID string, outcome repo.Outcome) (*repo.Event, error)
	DistributeRewards(ctx context.Context, eventID, playerID string) (int64, error)
	DeleteEvent(ctx context.Context, eventID string) (*repo.Event, error)
	GetVault(ctx context.Context) (*repo.Vault, error)
	GetEvent(ctx context.Context, eventID string) (*repo.Event, error)
	ListEvents(ctx context.Context) ([]repo.Event, error)
	ListBets(ctx context.Context, eventID string) ([]repo.Bet, error)
	GetPlayerStats(ctx context.Context, playerID string) (*repo.PlayerStats, error)
}

// SettlementPublisher publica transições confirmadas (Kafka)
type SettlementPublisher interface {
	PublishSettlement(ctx context.Context, e events.SettlementEvent) error
}

// Server expõe a API de instruções do ledger
type Server struct {
	log         *zap.Logger
	store       Store
	publ        SettlementPublisher
	adminSecret string
}

// NewServer instancia o servidor HTTP do ledger
func NewServer(log *zap.Logger, store Store, publ SettlementPublisher, adminSecret string) *Server {
	return &Server{log: log, store: store, publ: publ, adminSecret: adminSecret}
}

// Router monta as rotas; instruções administrativas exigem assinatura HMAC
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Leituras: snapshots eventualmente consistentes
	r.Get("/ledger/vault", s.getVault)
	r.Get("/ledger/events", s.listEvents)
	r.Get("/ledger/events/{id}", s.getEvent)
	r.Get("/ledger/events/{id}/bets", s.listBets)
	r.Get("/ledger/players/{id}/stats", s.getPlayerStats)

	// Instruções de jogador
	r.Post("/ledger/events/{id}/bets", s.placeBet)
	r.Post("/ledger/events/{id}/claim", s.claim)

	// Instruções administrativas (assinadas)
	r.Group(func(admin chi.Router) {
		admin.Use(sign.Middleware(s.adminSecret))
		admin.Post("/ledger/initialize", s.initialize)
		admin.Post("/ledger/events", s.createEvent)
		admin.Post("/ledger/events/{id}/resolve", s.resolveEvent)
		admin.Delete("/ledger/events/{id}", s.deleteEvent)
	})

	return r
}

func (s *Server) initialize(w http.ResponseWriter, r *http.Request) {
	var req dto.InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.OwnerID == "" || req.DepositCents < 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	v, err := s.store.Initialize(r.Context(), req.OwnerID, req.DepositCents)
	if err != nil {
		s.fail(w, "initialize", err)
		return
	}
	s.log.Info("vault initialized", zap.String("owner", v.OwnerID), zap.Int64("deposit_cents", v.BalanceCents))
	writeJSON(w, http.StatusCreated, vaultDTO(v))
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.ExternalID <= 0 || req.TeamA == "" || req.TeamB == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ev, err := s.store.CreateEvent(r.Context(), req.ExternalID, req.TeamA, req.TeamB, req.StartTime)
	if err != nil {
		s.fail(w, "create event", err)
		return
	}
	s.log.Info("event created",
		zap.Int64("external_id", ev.ExternalID),
		zap.String("event_id", ev.ID),
		zap.String("match", ev.TeamA+" vs "+ev.TeamB),
	)
	s.publish(r.Context(), events.SettlementEvent{
		Type:       events.SettlementMarketCreated,
		EventID:    ev.ID,
		ExternalID: ev.ExternalID,
	})
	writeJSON(w, http.StatusCreated, eventDTO(ev))
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.PlayerID == "" || req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	bet, err := s.store.PlaceBet(r.Context(), eventID, req.PlayerID, repo.Outcome(req.Outcome), req.AmountCents)
	if err != nil {
		s.fail(w, "place bet", err)
		return
	}
	s.log.Info("bet placed",
		zap.String("event_id", eventID),
		zap.String("player", req.PlayerID),
		zap.String("outcome", req.Outcome),
		zap.Int64("amount_cents", req.AmountCents),
	)
	writeJSON(w, http.StatusCreated, betDTO(bet))
}

func (s *Server) resolveEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	var req dto.ResolveEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	ev, err := s.store.ResolveEvent(r.Context(), eventID, repo.Outcome(req.Outcome))
	if err != nil {
		s.fail(w, "resolve event", err)
		return
	}
	s.log.Info("event resolved",
		zap.Int64("external_id", ev.ExternalID),
		zap.String("event_id", ev.ID),
		zap.String("winning_outcome", string(ev.Winning)),
	)
	s.publish(r.Context(), events.SettlementEvent{
		Type:       events.SettlementMarketResolved,
		EventID:    ev.ID,
		ExternalID: ev.ExternalID,
		Outcome:    string(ev.Winning),
	})
	writeJSON(w, http.StatusOK, eventDTO(ev))
}

func (s *Server) claim(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	var req dto.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "playerId required")
		return
	}
	payout, err := s.store.DistributeRewards(r.Context(), eventID, req.PlayerID)
	if err != nil {
		s.fail(w, "distribute rewards", err)
		return
	}
	s.log.Info("reward claimed",
		zap.String("event_id", eventID),
		zap.String("player", req.PlayerID),
		zap.Int64("payout_cents", payout),
	)
	s.publish(r.Context(), events.SettlementEvent{
		Type:        events.SettlementRewardClaimed,
		EventID:     eventID,
		PlayerID:    req.PlayerID,
		AmountCents: payout,
	})
	writeJSON(w, http.StatusOK, dto.ClaimResponse{
		BetID:       repo.BetAddress(eventID, req.PlayerID),
		PayoutCents: payout,
	})
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	ev, err := s.store.DeleteEvent(r.Context(), eventID)
	if err != nil {
		s.fail(w, "delete event", err)
		return
	}
	s.log.Info("event retired",
		zap.Int64("external_id", ev.ExternalID),
		zap.String("event_id", ev.ID),
	)
	s.publish(r.Context(), events.SettlementEvent{
		Type:       events.SettlementMarketRetired,
		EventID:    ev.ID,
		ExternalID: ev.ExternalID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getVault(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.GetVault(r.Context())
	if err != nil {
		s.fail(w, "get vault", err)
		return
	}
	writeJSON(w, http.StatusOK, vaultDTO(v))
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.store.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "get event", err)
		return
	}
	writeJSON(w, http.StatusOK, eventDTO(ev))
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.store.ListEvents(r.Context())
	if err != nil {
		s.fail(w, "list events", err)
		return
	}
	out := make([]dto.EventResponse, 0, len(evs))
	for i := range evs {
		out = append(out, eventDTO(&evs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.store.ListBets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "list bets", err)
		return
	}
	out := make([]dto.BetResponse, 0, len(bets))
	for i := range bets {
		out = append(out, betDTO(&bets[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "id")
	st, err := s.store.GetPlayerStats(r.Context(), playerID)
	if err != nil {
		s.fail(w, "player stats", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PlayerStatsResponse{
		PlayerID:          st.PlayerID,
		TotalWageredCents: st.TotalWageredCents,
		TotalWonCents:     st.TotalWonCents,
	})
}

// publish envia o evento de settlement; falha de Kafka não desfaz a instrução
// já commitada, só é registrada
func (s *Server) publish(ctx context.Context, e events.SettlementEvent) {
	if s.publ == nil {
		return
	}
	if err := s.publ.PublishSettlement(ctx, e); err != nil {
		s.log.Warn("settlement publish failed", zap.String("type", e.Type), zap.Error(err))
	}
}

// fail traduz os erros sentinela do repo para status HTTP
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repo.ErrEventNotFound),
		errors.Is(err, repo.ErrBetNotFound),
		errors.Is(err, repo.ErrVaultNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repo.ErrInvalidAmount),
		errors.Is(err, repo.ErrInvalidOutcome),
		errors.Is(err, repo.ErrInvalidStartTime):
		status = http.StatusBadRequest
	case errors.Is(err, repo.ErrAlreadyInitialized),
		errors.Is(err, repo.ErrEventExists),
		errors.Is(err, repo.ErrBettingClosed),
		errors.Is(err, repo.ErrOutcomeMismatch),
		errors.Is(err, repo.ErrAlreadyResolved),
		errors.Is(err, repo.ErrNotResolved),
		errors.Is(err, repo.ErrNotWinner),
		errors.Is(err, repo.ErrAlreadyClaimed),
		errors.Is(err, repo.ErrInsufficientVault),
		errors.Is(err, repo.ErrNotSettleable):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error(op, zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func vaultDTO(v *repo.Vault) dto.VaultResponse {
	return dto.VaultResponse{
		VaultID:       v.ID,
		OwnerID:       v.OwnerID,
		BalanceCents:  v.BalanceCents,
		DerivationTag: v.DerivationTag,
	}
}

func eventDTO(e *repo.Event) dto.EventResponse {
	return dto.EventResponse{
		EventID:       e.ID,
		ExternalID:    e.ExternalID,
		TeamA:         e.TeamA,
		TeamB:         e.TeamB,
		StartTime:     e.StartTime,
		OutcomeACents: e.OutcomeACents,
		OutcomeBCents: e.OutcomeBCents,
		DrawCents:     e.DrawCents,
		TotalCents:    e.TotalCents,
		Resolved:      e.Resolved,
		Winning:       string(e.Winning),
	}
}

func betDTO(b *repo.Bet) dto.BetResponse {
	return dto.BetResponse{
		BetID:       b.ID,
		EventID:     b.EventID,
		PlayerID:    b.PlayerID,
		Outcome:     string(b.Outcome),
		AmountCents: b.AmountCents,
		Claimed:     b.Claimed,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
