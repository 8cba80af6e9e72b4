package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestLedger(t *testing.T) (*Memory, func(time.Time)) {
	t.Helper()
	m := NewMemory("house")
	clock := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	m.SetNow(func() time.Time { return clock })
	if _, err := m.Initialize(context.Background(), "house", 0); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return m, func(at time.Time) { clock = at }
}

func TestInitializeOnce(t *testing.T) {
	m := NewMemory("house")
	ctx := context.Background()
	if _, err := m.Initialize(ctx, "house", 500); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := m.Initialize(ctx, "house", 500); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Initialize: got %v, want ErrAlreadyInitialized", err)
	}
	v, err := m.GetVault(ctx)
	if err != nil {
		t.Fatalf("GetVault: %v", err)
	}
	if v.BalanceCents != 500 {
		t.Errorf("vault balance = %d, want 500", v.BalanceCents)
	}
}

func TestCreateEventGuards(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2025, 8, 2, 16, 0, 0, 0, time.UTC)

	if _, err := m.CreateEvent(ctx, 42, "Arsenal", "Chelsea", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrInvalidStartTime) {
		t.Errorf("past start: got %v, want ErrInvalidStartTime", err)
	}
	if _, err := m.CreateEvent(ctx, 42, "Arsenal", "Chelsea", start); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if _, err := m.CreateEvent(ctx, 42, "Arsenal", "Chelsea", start); !errors.Is(err, ErrEventExists) {
		t.Errorf("duplicate externalId: got %v, want ErrEventExists", err)
	}
}

func TestPlaceBetUpdatesPoolsAndVault(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2025, 8, 2, 16, 0, 0, 0, time.UTC)
	ev, _ := m.CreateEvent(ctx, 1, "Arsenal", "Chelsea", start)

	if _, err := m.PlaceBet(ctx, ev.ID, "alice", OutcomeA, 1000); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if _, err := m.PlaceBet(ctx, ev.ID, "bob", OutcomeB, 2000); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	// Same player, same outcome: stake accumulates on the same bet.
	if _, err := m.PlaceBet(ctx, ev.ID, "alice", OutcomeA, 500); err != nil {
		t.Fatalf("repeat PlaceBet: %v", err)
	}
	// Same player, different outcome: rejected, nothing changes.
	if _, err := m.PlaceBet(ctx, ev.ID, "alice", OutcomeB, 500); !errors.Is(err, ErrOutcomeMismatch) {
		t.Errorf("outcome switch: got %v, want ErrOutcomeMismatch", err)
	}

	got, _ := m.GetEvent(ctx, ev.ID)
	if got.OutcomeACents != 1500 || got.OutcomeBCents != 2000 || got.DrawCents != 0 {
		t.Errorf("pools = %d/%d/%d, want 1500/2000/0", got.OutcomeACents, got.OutcomeBCents, got.DrawCents)
	}
	if got.TotalCents != got.OutcomeACents+got.OutcomeBCents+got.DrawCents {
		t.Errorf("total %d != sum of pools", got.TotalCents)
	}
	v, _ := m.GetVault(ctx)
	if v.BalanceCents != 3500 {
		t.Errorf("vault = %d, want 3500", v.BalanceCents)
	}
	st, err := m.GetPlayerStats(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPlayerStats: %v", err)
	}
	if st.TotalWageredCents != 1500 {
		t.Errorf("alice wagered = %d, want 1500", st.TotalWageredCents)
	}
}

func TestPlaceBetClosesAtKickoff(t *testing.T) {
	m, setClock := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2025, 8, 2, 16, 0, 0, 0, time.UTC)
	ev, _ := m.CreateEvent(ctx, 1, "Arsenal", "Chelsea", start)

	setClock(start) // exactly at kickoff the window is already closed
	if _, err := m.PlaceBet(ctx, ev.ID, "alice", OutcomeA, 1000); !errors.Is(err, ErrBettingClosed) {
		t.Errorf("bet at kickoff: got %v, want ErrBettingClosed", err)
	}
	got, _ := m.GetEvent(ctx, ev.ID)
	if got.TotalCents != 0 {
		t.Errorf("rejected bet mutated pools: total = %d", got.TotalCents)
	}
}

func TestResolveEventOnce(t *testing.T) {
	m, _ := newTestLedger(t)
	ctx := context.Background()
	ev, _ := m.CreateEvent(ctx, 1, "Arsenal", "Chelsea", time.Date(2025, 8, 2, 16, 0, 0, 0, time.UTC))

	if _, err := m.ResolveEvent(ctx, ev.ID, Outcome("X")); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("bad outcome: got %v, want ErrInvalidOutcome", err)
	}
	if _, err := m.ResolveEvent(ctx, ev.ID, OutcomeA); err != nil {
		t.Fatalf("ResolveEvent: %v", err)
	}
	if _, err := m.ResolveEvent(ctx, ev.ID, OutcomeB); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("re-resolve: got %v, want ErrAlreadyResolved", err)
	}
	got, _ := m.GetEvent(ctx, ev.ID)
	if got.Winning != OutcomeA {
		t.Errorf("winning = %q, want A (first resolution sticks)", got.Winning)
	}
}

func TestDistributeRewardsScenario(t *testing.T) {
	m, setClock := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2025, 8, 2, 16, 0, 0, 0, time.UTC)
	ev, _ := m.CreateEvent(ctx, 1, "Arsenal", "Chelsea", start)

	m.PlaceBet(ctx, ev.ID, "alice", OutcomeA, 1000)
	m.PlaceBet(ctx, ev.ID, "bob", OutcomeB, 2000)

	if _, err := m.DistributeRewards(ctx, ev.ID, "alice"); !errors.Is(err, ErrNotResolved) {
		t.Errorf("claim before resolve: got %v, want ErrNotResolved", err)
	}

	setClock(start.Add(2 * time.Hour))
	m.ResolveEvent(ctx, ev.ID, OutcomeA)

	payout, err := m.DistributeRewards(ctx, ev.ID, "alice")
	if err != nil {
		t.Fatalf("DistributeRewards: %v", err)
	}
	if payout != 3000 { // stake 1000 + full losing pool 2000
		t.Errorf("payout = %d, want 3000", payout)
	}
	v, _ := m.GetVault(ctx)
	if v.BalanceCents != 0 {
		t.Errorf("vault after payout = %d, want 0", v.BalanceCents)
	}

	if _, err := m.DistributeRewards(ctx, ev.ID, "alice"); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("double claim: got %v, want ErrAlreadyClaimed", err)
	}
	v2, _ := m.GetVault(ctx)
	if v2.BalanceCents != v.BalanceCents {
		t.Errorf("rejected claim changed vault: %d -> %d", v.BalanceCents, v2.BalanceCents)
	}

	if _, err := m.DistributeRewards(ctx, ev.ID, "bob"); !errors.Is(err, ErrNotWinner) {
		t.Errorf("loser claim: got %v, want ErrNotWinner", err)
	}
	if _, err := m.DistributeRewards(ctx, ev.ID, "carol"); !errors.Is(err, ErrBetNotFound) {
		t.Errorf("no bet: got %v, want ErrBetNotFound", err)
	}

	st, _ := m.GetPlayerStats(ctx, "alice")
	if st.TotalWonCents != 3000 {
		t.Errorf("alice won = %d, want 3000", st.TotalWonCents)
	}
}

func TestDeleteEventGatedOnWinningClaims(t *testing.T) {
	m, setClock := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2025, 8, 2, 16, 0, 0, 0, time.UTC)
	ev, _ := m.CreateEvent(ctx, 1, "Arsenal", "Chelsea", start)

	m.PlaceBet(ctx, ev.ID, "alice", OutcomeA, 1000)
	m.PlaceBet(ctx, ev.ID, "bob", OutcomeB, 2000)

	if _, err := m.DeleteEvent(ctx, ev.ID); !errors.Is(err, ErrNotSettleable) {
		t.Errorf("delete unresolved: got %v, want ErrNotSettleable", err)
	}

	setClock(start.Add(2 * time.Hour))
	m.ResolveEvent(ctx, ev.ID, OutcomeA)

	// alice (winner) has not claimed yet: still not settleable.
	if _, err := m.DeleteEvent(ctx, ev.ID); !errors.Is(err, ErrNotSettleable) {
		t.Errorf("delete with unclaimed winner: got %v, want ErrNotSettleable", err)
	}

	if _, err := m.DistributeRewards(ctx, ev.ID, "alice"); err != nil {
		t.Fatalf("DistributeRewards: %v", err)
	}

	// bob lost and can never claim; his bet must not block retirement.
	if _, err := m.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := m.GetEvent(ctx, ev.ID); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("event still present after delete: %v", err)
	}
	if bets, _ := m.ListBets(ctx, ev.ID); len(bets) != 0 {
		t.Errorf("bets still present after delete: %d", len(bets))
	}
}

func TestVaultNeverPaysMoreThanItHolds(t *testing.T) {
	m, setClock := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2025, 8, 2, 16, 0, 0, 0, time.UTC)
	ev, _ := m.CreateEvent(ctx, 1, "Arsenal", "Chelsea", start)

	// Everything wagered lands in the vault.
	m.PlaceBet(ctx, ev.ID, "alice", OutcomeA, 10)
	m.PlaceBet(ctx, ev.ID, "bob", OutcomeA, 20)
	m.PlaceBet(ctx, ev.ID, "carol", OutcomeB, 31)

	setClock(start.Add(2 * time.Hour))
	m.ResolveEvent(ctx, ev.ID, OutcomeA)

	var paid int64
	for _, p := range []string{"alice", "bob"} {
		got, err := m.DistributeRewards(ctx, ev.ID, p)
		if err != nil {
			t.Fatalf("DistributeRewards(%s): %v", p, err)
		}
		paid += got
	}
	v, _ := m.GetVault(ctx)
	if v.BalanceCents < 0 {
		t.Fatalf("vault went negative: %d", v.BalanceCents)
	}
	if paid+v.BalanceCents != 61 {
		t.Errorf("paid %d + vault %d != total 61 (dust must stay in vault)", paid, v.BalanceCents)
	}
}
