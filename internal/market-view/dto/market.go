package dto

import "time"

// Market representa a visão pública de um mercado de apostas parimutuel
type Market struct {
	ExternalID int64     `json:"externalId"`
	EventID    string    `json:"eventId"`
	TeamA      string    `json:"teamA"`
	TeamB      string    `json:"teamB"`
	StartTime  time.Time `json:"startTime"`
	PoolACents int64     `json:"poolACents"`
	PoolBCents int64     `json:"poolBCents"`
	DrawCents  int64     `json:"drawCents"`
	TotalCents int64     `json:"totalCents"`
	Resolved   bool      `json:"resolved"`
	Winning    string    `json:"winning,omitempty"`
}
