package feed

import "time"

// Team é uma entrada de /bootstrap-static
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// bootstrapResponse é o envelope de /bootstrap-static
type bootstrapResponse struct {
	Teams []Team `json:"teams"`
}

// Fixture é uma partida de /fixtures. Os scores são ponteiros porque o feed
// devolve null até a partida ter placar.
type Fixture struct {
	ID          int64     `json:"id"`
	HomeTeam    int64     `json:"team_h"`
	AwayTeam    int64     `json:"team_a"`
	HomeScore   *int64    `json:"team_h_score"`
	AwayScore   *int64    `json:"team_a_score"`
	Started     bool      `json:"started"`
	Finished    bool      `json:"finished"`
	KickoffTime time.Time `json:"kickoff_time"`
}

// HasResult informa se a partida terminou com placar completo; só então ela
// pode resolver um mercado.
func (f *Fixture) HasResult() bool {
	return f.Finished && f.HomeScore != nil && f.AwayScore != nil
}
