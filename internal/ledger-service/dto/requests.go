package dto

import "time"

type InitializeRequest struct {
	OwnerID      string `json:"owner_id"`
	DepositCents int64  `json:"deposit_cents"`
}

type CreateEventRequest struct {
	ExternalID int64     `json:"external_id"`
	TeamA      string    `json:"team_a"`
	TeamB      string    `json:"team_b"`
	StartTime  time.Time `json:"start_time"`
}

type PlaceBetRequest struct {
	PlayerID    string `json:"player_id"`
	Outcome     string `json:"outcome"` // "A" | "B" | "DRAW"
	AmountCents int64  `json:"amount_cents"`
}

type ResolveEventRequest struct {
	Outcome string `json:"outcome"`
}

type ClaimRequest struct {
	PlayerID string `json:"player_id"`
}
