package sim

import (
	"testing"
	"time"
)

func TestBootstrapTeams(t *testing.T) {
	w := NewWorld(1, nil)
	b := w.Bootstrap()
	if len(b.Teams) != 20 {
		t.Fatalf("teams = %d, want 20", len(b.Teams))
	}
	seen := make(map[int64]bool)
	for _, team := range b.Teams {
		if team.Name == "" {
			t.Errorf("team %d has empty name", team.ID)
		}
		if seen[team.ID] {
			t.Errorf("duplicate team id %d", team.ID)
		}
		seen[team.ID] = true
	}
}

func TestFixturesProgressWithClock(t *testing.T) {
	clock := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	w := NewWorld(7, func() time.Time { return clock })

	fixtures := w.Fixtures()
	if len(fixtures) == 0 {
		t.Fatal("no fixtures scheduled")
	}
	for _, f := range fixtures {
		if f.Started || f.Finished {
			t.Errorf("fixture %d started before kickoff", f.ID)
		}
		if f.HomeScore != nil || f.AwayScore != nil {
			t.Errorf("fixture %d has scores before kickoff", f.ID)
		}
		if f.HomeTeam == f.AwayTeam {
			t.Errorf("fixture %d pairs a team with itself", f.ID)
		}
		if !f.KickoffTime.After(clock) {
			t.Errorf("fixture %d kickoff %v not in the future", f.ID, f.KickoffTime)
		}
	}

	// Past all kickoffs plus the match duration everything is finished.
	clock = clock.Add(w.LeadMax + w.MatchDuration + time.Minute)
	finished := make(map[int64]FixtureWire)
	for _, f := range w.Fixtures() {
		if f.Finished {
			finished[f.ID] = f
		}
	}
	if len(finished) != len(fixtures) {
		t.Fatalf("finished %d of %d original fixtures", len(finished), len(fixtures))
	}
	for _, f := range finished {
		if !f.Started {
			t.Errorf("fixture %d finished but not started", f.ID)
		}
		if f.HomeScore == nil || f.AwayScore == nil {
			t.Errorf("fixture %d finished without scores", f.ID)
		}
	}

	// Final scores are stable between polls.
	for _, f := range w.Fixtures() {
		prev, ok := finished[f.ID]
		if !ok {
			continue
		}
		if *f.HomeScore != *prev.HomeScore || *f.AwayScore != *prev.AwayScore {
			t.Errorf("fixture %d score changed after finish", f.ID)
		}
	}
}

func TestScheduleRefills(t *testing.T) {
	clock := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	w := NewWorld(3, func() time.Time { return clock })

	first := w.Fixtures()
	clock = clock.Add(w.LeadMax + time.Minute) // all originals kicked off

	var upcoming int
	for _, f := range w.Fixtures() {
		if !f.Started {
			upcoming++
		}
	}
	if upcoming < w.Upcoming {
		t.Errorf("upcoming after refill = %d, want >= %d", upcoming, w.Upcoming)
	}
	if len(w.Fixtures()) <= len(first) {
		t.Errorf("calendar did not grow: %d then %d", len(first), len(w.Fixtures()))
	}
}
