package sim

import (
	"math/rand"
	"sync"
	"time"
)

// Catálogo fixo de times para geração de partidas simuladas
var teamCatalog = []TeamWire{
	{ID: 1, Name: "Arsenal"},
	{ID: 2, Name: "Aston Villa"},
	{ID: 3, Name: "Bournemouth"},
	{ID: 4, Name: "Brentford"},
	{ID: 5, Name: "Brighton"},
	{ID: 6, Name: "Chelsea"},
	{ID: 7, Name: "Crystal Palace"},
	{ID: 8, Name: "Everton"},
	{ID: 9, Name: "Fulham"},
	{ID: 10, Name: "Liverpool"},
	{ID: 11, Name: "Man City"},
	{ID: 12, Name: "Man Utd"},
	{ID: 13, Name: "Newcastle"},
	{ID: 14, Name: "Nott'm Forest"},
	{ID: 15, Name: "Southampton"},
	{ID: 16, Name: "Spurs"},
	{ID: 17, Name: "West Ham"},
	{ID: 18, Name: "Wolves"},
	{ID: 19, Name: "Leicester"},
	{ID: 20, Name: "Ipswich"},
}

// TeamWire é o formato de time exposto em /bootstrap-static/
type TeamWire struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BootstrapWire é o corpo de resposta de /bootstrap-static/
type BootstrapWire struct {
	Teams []TeamWire `json:"teams"`
}

// FixtureWire é o formato de partida exposto em /fixtures/
// Scores são ponteiros: null enquanto a partida não começou
type FixtureWire struct {
	ID          int64     `json:"id"`
	HomeTeam    int64     `json:"team_h"`
	AwayTeam    int64     `json:"team_a"`
	HomeScore   *int64    `json:"team_h_score"`
	AwayScore   *int64    `json:"team_a_score"`
	Started     bool      `json:"started"`
	Finished    bool      `json:"finished"`
	KickoffTime time.Time `json:"kickoff_time"`
}

type fixture struct {
	id         int64
	home, away int64
	kickoff    time.Time
	homeScore  int64
	awayScore  int64
}

// World simula o calendário de uma rodada: agenda partidas futuras e as
// faz progredir (agendada -> em andamento -> encerrada) conforme o relógio
type World struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	now     func() time.Time
	nextID  int64
	matches []fixture

	// Duração simulada de uma partida e quantidade mantida em calendário
	MatchDuration time.Duration
	Upcoming      int
	LeadMin       time.Duration
	LeadMax       time.Duration
}

// NewWorld cria o mundo simulado com seed determinística para testes
func NewWorld(seed int64, now func() time.Time) *World {
	if now == nil {
		now = time.Now
	}
	return &World{
		rnd:           rand.New(rand.NewSource(seed)),
		now:           now,
		nextID:        1000,
		MatchDuration: 10 * time.Minute,
		Upcoming:      6,
		LeadMin:       2 * time.Minute,
		LeadMax:       30 * time.Minute,
	}
}

// Bootstrap retorna o catálogo de times no formato do feed
func (w *World) Bootstrap() BootstrapWire {
	return BootstrapWire{Teams: teamCatalog}
}

// Fixtures avança o calendário e retorna as partidas no formato do feed
func (w *World) Fixtures() []FixtureWire {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.schedule(now)

	out := make([]FixtureWire, 0, len(w.matches))
	for i := range w.matches {
		out = append(out, w.wire(&w.matches[i], now))
	}
	return out
}

// schedule garante Upcoming partidas ainda não iniciadas no calendário
func (w *World) schedule(now time.Time) {
	upcoming := 0
	for i := range w.matches {
		if now.Before(w.matches[i].kickoff) {
			upcoming++
		}
	}
	for upcoming < w.Upcoming {
		home := teamCatalog[w.rnd.Intn(len(teamCatalog))].ID
		away := teamCatalog[w.rnd.Intn(len(teamCatalog))].ID
		for away == home {
			away = teamCatalog[w.rnd.Intn(len(teamCatalog))].ID
		}
		lead := w.LeadMin + time.Duration(w.rnd.Int63n(int64(w.LeadMax-w.LeadMin)))
		w.nextID++
		w.matches = append(w.matches, fixture{
			id:        w.nextID,
			home:      home,
			away:      away,
			kickoff:   now.Add(lead),
			homeScore: w.rnd.Int63n(5),
			awayScore: w.rnd.Int63n(5),
		})
		upcoming++
	}
}

// wire projeta o estado da partida para o formato do feed conforme o relógio
func (w *World) wire(f *fixture, now time.Time) FixtureWire {
	fw := FixtureWire{
		ID:          f.id,
		HomeTeam:    f.home,
		AwayTeam:    f.away,
		KickoffTime: f.kickoff,
	}
	if now.Before(f.kickoff) {
		return fw
	}
	fw.Started = true
	h, a := f.homeScore, f.awayScore
	if now.Before(f.kickoff.Add(w.MatchDuration)) {
		// Em andamento: placar parcial proporcional ao tempo decorrido
		frac := float64(now.Sub(f.kickoff)) / float64(w.MatchDuration)
		h = int64(float64(h) * frac)
		a = int64(float64(a) * frac)
	} else {
		fw.Finished = true
	}
	fw.HomeScore = &h
	fw.AwayScore = &a
	return fw
}
