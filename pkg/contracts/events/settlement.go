package events

import "time"

// Tipos de transição publicados no tópico "settlement_events"
const (
	SettlementMarketCreated  = "market_created"
	SettlementMarketResolved = "market_resolved"
	SettlementRewardClaimed  = "reward_claimed"
	SettlementMarketRetired  = "market_retired"
)

// Evento emitido pelo ledger-service após o commit de uma instrução.
type SettlementEvent struct {
	Type        string    `json:"type"`
	EventID     string    `json:"event_id"`
	ExternalID  int64     `json:"external_id"`
	PlayerID    string    `json:"player_id,omitempty"`    // em reward_claimed
	Outcome     string    `json:"outcome,omitempty"`      // em market_resolved
	AmountCents int64     `json:"amount_cents,omitempty"` // payout em reward_claimed
	Ts          time.Time `json:"ts"`
}
