package repo

import "time"

// Outcome é o desfecho de um mercado de três vias (1x2)
type Outcome string

const (
	OutcomeA    Outcome = "A" // vitória do time A (mandante)
	OutcomeB    Outcome = "B" // vitória do time B (visitante)
	OutcomeDraw Outcome = "DRAW"
)

// Valid informa se o outcome é um dos três aceitos pelo ledger
func (o Outcome) Valid() bool {
	return o == OutcomeA || o == OutcomeB || o == OutcomeDraw
}

// Vault é a conta de custódia do administrador ("casa"); concentra todo o
// valor apostado. Criada uma única vez por Initialize.
type Vault struct {
	ID            string
	OwnerID       string
	BalanceCents  int64
	DerivationTag string
	CreatedAt     time.Time
}

// Event é um mercado: uma partida real identificada pelo externalId do feed.
type Event struct {
	ID            string
	ExternalID    int64
	TeamA         string
	TeamB         string
	StartTime     time.Time
	OutcomeACents int64
	OutcomeBCents int64
	DrawCents     int64
	TotalCents    int64
	Resolved      bool
	Winning       Outcome // vazio enquanto não resolvido
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PoolFor retorna o total apostado no outcome informado
func (e *Event) PoolFor(o Outcome) int64 {
	switch o {
	case OutcomeA:
		return e.OutcomeACents
	case OutcomeB:
		return e.OutcomeBCents
	default:
		return e.DrawCents
	}
}

// Bet é a aposta de um jogador em um evento; no máximo uma por (evento, jogador).
type Bet struct {
	ID          string
	EventID     string
	PlayerID    string
	Outcome     Outcome
	AmountCents int64
	Claimed     bool
	CreatedAt   time.Time
}

// PlayerStats agrega volume apostado e ganho por jogador; criada na primeira aposta.
type PlayerStats struct {
	ID                string
	PlayerID          string
	TotalWageredCents int64
	TotalWonCents     int64
}
