package events

import "time"

// Snapshot de um mercado publicado no tópico "market_snapshots" pela fase
// Display do market-sync-worker. Projeção somente leitura do estado do ledger.
type MarketSnapshot struct {
	ExternalID int64     `json:"external_id"`
	EventID    string    `json:"event_id"`
	TeamA      string    `json:"team_a"`
	TeamB      string    `json:"team_b"`
	StartTime  time.Time `json:"start_time"`
	PoolACents int64     `json:"pool_a_cents"`
	PoolBCents int64     `json:"pool_b_cents"`
	DrawCents  int64     `json:"draw_cents"`
	TotalCents int64     `json:"total_cents"`
	Resolved   bool      `json:"resolved"`
	Winning    string    `json:"winning_outcome,omitempty"` // "A" | "B" | "DRAW"
	CapturedAt time.Time `json:"captured_at"`
	Source     string    `json:"source"`  // "market-sync-worker"
	Version    int64     `json:"version"` // monotônico por ciclo de Display
}
