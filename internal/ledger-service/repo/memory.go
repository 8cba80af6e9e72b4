package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory é uma implementação em memória do conjunto de instruções, com as
// mesmas transições e guards do Postgres. Usada em testes e em execução local
// sem banco. Todos os guards rodam antes de qualquer mutação, então uma
// instrução rejeitada não altera nenhuma conta.
type Memory struct {
	mu         sync.Mutex
	adminOwner string
	now        func() time.Time

	vault  *Vault
	events map[string]*Event
	bets   map[string]*Bet // chave: endereço derivado da aposta
	stats  map[string]*PlayerStats
}

// NewMemory retorna um ledger em memória vazio
func NewMemory(adminOwner string) *Memory {
	return &Memory{
		adminOwner: adminOwner,
		now:        time.Now,
		events:     make(map[string]*Event),
		bets:       make(map[string]*Bet),
		stats:      make(map[string]*PlayerStats),
	}
}

// SetNow troca o relógio (testes de janela de aposta)
func (m *Memory) SetNow(now func() time.Time) { m.now = now }

func (m *Memory) Initialize(ctx context.Context, ownerID string, depositCents int64) (*Vault, error) {
	if depositCents < 0 {
		return nil, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vault != nil {
		return nil, ErrAlreadyInitialized
	}
	m.vault = &Vault{
		ID:            VaultAddress(ownerID),
		OwnerID:       ownerID,
		BalanceCents:  depositCents,
		DerivationTag: TagVault,
		CreatedAt:     m.now().UTC(),
	}
	v := *m.vault
	return &v, nil
}

func (m *Memory) CreateEvent(ctx context.Context, externalID int64, teamA, teamB string, startTime time.Time) (*Event, error) {
	if !startTime.After(m.now()) {
		return nil, ErrInvalidStartTime
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.events {
		if e.ExternalID == externalID {
			return nil, ErrEventExists
		}
	}
	e := &Event{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		TeamA:      teamA,
		TeamB:      teamB,
		StartTime:  startTime.UTC(),
		CreatedAt:  m.now().UTC(),
		UpdatedAt:  m.now().UTC(),
	}
	m.events[e.ID] = e
	out := *e
	return &out, nil
}

func (m *Memory) PlaceBet(ctx context.Context, eventID, playerID string, outcome Outcome, amountCents int64) (*Bet, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	if !m.now().Before(ev.StartTime) {
		return nil, ErrBettingClosed
	}
	if m.vault == nil {
		return nil, ErrVaultNotFound
	}

	addr := BetAddress(eventID, playerID)
	existing := m.bets[addr]
	if existing != nil && existing.Outcome != outcome {
		return nil, ErrOutcomeMismatch
	}

	// Guards aprovados: aplica todas as mutações
	if existing == nil {
		m.bets[addr] = &Bet{
			ID:          addr,
			EventID:     eventID,
			PlayerID:    playerID,
			Outcome:     outcome,
			AmountCents: amountCents,
			CreatedAt:   m.now().UTC(),
		}
	} else {
		existing.AmountCents += amountCents
	}

	switch outcome {
	case OutcomeA:
		ev.OutcomeACents += amountCents
	case OutcomeB:
		ev.OutcomeBCents += amountCents
	default:
		ev.DrawCents += amountCents
	}
	ev.TotalCents += amountCents
	ev.UpdatedAt = m.now().UTC()

	m.vault.BalanceCents += amountCents

	st := m.stats[playerID]
	if st == nil {
		st = &PlayerStats{ID: StatsAddress(playerID), PlayerID: playerID}
		m.stats[playerID] = st
	}
	st.TotalWageredCents += amountCents

	out := *m.bets[addr]
	return &out, nil
}

func (m *Memory) ResolveEvent(ctx context.Context, eventID string, outcome Outcome) (*Event, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	if ev.Resolved {
		return nil, ErrAlreadyResolved
	}
	ev.Resolved = true
	ev.Winning = outcome
	ev.UpdatedAt = m.now().UTC()
	out := *ev
	return &out, nil
}

func (m *Memory) DistributeRewards(ctx context.Context, eventID, playerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return 0, ErrEventNotFound
	}
	if !ev.Resolved {
		return 0, ErrNotResolved
	}
	bet := m.bets[BetAddress(eventID, playerID)]
	if bet == nil {
		return 0, ErrBetNotFound
	}
	if bet.Outcome != ev.Winning {
		return 0, ErrNotWinner
	}
	if bet.Claimed {
		return 0, ErrAlreadyClaimed
	}

	winningPool := ev.PoolFor(ev.Winning)
	losingPool := ev.TotalCents - winningPool
	payout, err := Payout(bet.AmountCents, winningPool, losingPool)
	if err != nil {
		return 0, err
	}
	if m.vault == nil {
		return 0, ErrVaultNotFound
	}
	if m.vault.BalanceCents < payout {
		return 0, ErrInsufficientVault
	}

	m.vault.BalanceCents -= payout
	bet.Claimed = true
	if st := m.stats[playerID]; st != nil {
		st.TotalWonCents += payout
	}
	return payout, nil
}

func (m *Memory) DeleteEvent(ctx context.Context, eventID string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	if !ev.Resolved {
		return nil, ErrNotSettleable
	}
	for _, b := range m.bets {
		if b.EventID == eventID && b.Outcome == ev.Winning && !b.Claimed {
			return nil, ErrNotSettleable
		}
	}

	for addr, b := range m.bets {
		if b.EventID == eventID {
			delete(m.bets, addr)
		}
	}
	delete(m.events, eventID)
	out := *ev
	return &out, nil
}

func (m *Memory) GetVault(ctx context.Context) (*Vault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vault == nil {
		return nil, ErrVaultNotFound
	}
	v := *m.vault
	return &v, nil
}

func (m *Memory) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	out := *ev
	return &out, nil
}

func (m *Memory) ListEvents(ctx context.Context) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) ListBets(ctx context.Context, eventID string) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Bet
	for _, b := range m.bets {
		if b.EventID == eventID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[playerID]
	if !ok {
		return nil, ErrBetNotFound
	}
	out := *st
	return &out, nil
}
