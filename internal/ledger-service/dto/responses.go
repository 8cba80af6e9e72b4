package dto

import "time"

type VaultResponse struct {
	VaultID       string `json:"vault_id"`
	OwnerID       string `json:"owner_id"`
	BalanceCents  int64  `json:"balance_cents"`
	DerivationTag string `json:"derivation_tag"`
}

type EventResponse struct {
	EventID       string    `json:"event_id"`
	ExternalID    int64     `json:"external_id"`
	TeamA         string    `json:"team_a"`
	TeamB         string    `json:"team_b"`
	StartTime     time.Time `json:"start_time"`
	OutcomeACents int64     `json:"outcome_a_cents"`
	OutcomeBCents int64     `json:"outcome_b_cents"`
	DrawCents     int64     `json:"draw_cents"`
	TotalCents    int64     `json:"total_cents"`
	Resolved      bool      `json:"resolved"`
	Winning       string    `json:"winning_outcome,omitempty"`
}

type BetResponse struct {
	BetID       string `json:"bet_id"`
	EventID     string `json:"event_id"`
	PlayerID    string `json:"player_id"`
	Outcome     string `json:"outcome"`
	AmountCents int64  `json:"amount_cents"`
	Claimed     bool   `json:"claimed"`
}

type ClaimResponse struct {
	BetID       string `json:"bet_id"`
	PayoutCents int64  `json:"payout_cents"`
}

type PlayerStatsResponse struct {
	PlayerID          string `json:"player_id"`
	TotalWageredCents int64  `json:"total_wagered_cents"`
	TotalWonCents     int64  `json:"total_won_cents"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
