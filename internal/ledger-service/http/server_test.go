package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/ledger-service/dto"
	"github.com/radieske/sports-hub-poc/internal/ledger-service/repo"
	"github.com/radieske/sports-hub-poc/internal/ledger-service/sign"
	"github.com/radieske/sports-hub-poc/pkg/contracts/events"
)

const testSecret = "test-admin-secret"

type capturePublisher struct {
	mu     sync.Mutex
	events []events.SettlementEvent
}

func (c *capturePublisher) PublishSettlement(ctx context.Context, e events.SettlementEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func newTestServer(t *testing.T) (*httptest.Server, *repo.Memory, *capturePublisher) {
	t.Helper()
	store := repo.NewMemory("house")
	publ := &capturePublisher{}
	srv := httptest.NewServer(NewServer(zap.NewNop(), store, publ, testSecret).Router())
	t.Cleanup(srv.Close)
	return srv, store, publ
}

func doJSON(t *testing.T, method, url, path string, body any, signed bool) *http.Response {
	t.Helper()
	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	req, err := http.NewRequest(method, url+path, bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if signed {
		req.Header.Set(sign.Header, sign.Sign(testSecret, method, path, buf))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestAdminRoutesRequireSignature(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := dto.InitializeRequest{OwnerID: "house", DepositCents: 1000}
	resp := doJSON(t, http.MethodPost, srv.URL, "/ledger/initialize", body, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unsigned initialize: status %d, want 401", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL, "/ledger/initialize", body, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("signed initialize: status %d, want 201", resp.StatusCode)
	}
}

func TestFullMarketLifecycle(t *testing.T) {
	srv, store, publ := newTestServer(t)
	clock := time.Now().UTC()
	store.SetNow(func() time.Time { return clock })
	start := clock.Add(2 * time.Hour)

	// Initialize vault
	resp := doJSON(t, http.MethodPost, srv.URL, "/ledger/initialize",
		dto.InitializeRequest{OwnerID: "house", DepositCents: 0}, true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("initialize: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Create market
	resp = doJSON(t, http.MethodPost, srv.URL, "/ledger/events",
		dto.CreateEventRequest{ExternalID: 42, TeamA: "Arsenal", TeamB: "Chelsea", StartTime: start}, true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event: status %d", resp.StatusCode)
	}
	ev := decode[dto.EventResponse](t, resp)

	// Duplicate externalId -> 409
	resp = doJSON(t, http.MethodPost, srv.URL, "/ledger/events",
		dto.CreateEventRequest{ExternalID: 42, TeamA: "Arsenal", TeamB: "Chelsea", StartTime: start}, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate create: status %d, want 409", resp.StatusCode)
	}

	// Bets
	betsPath := fmt.Sprintf("/ledger/events/%s/bets", ev.EventID)
	resp = doJSON(t, http.MethodPost, srv.URL, betsPath,
		dto.PlaceBetRequest{PlayerID: "alice", Outcome: "A", AmountCents: 1000}, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("place bet: status %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, srv.URL, betsPath,
		dto.PlaceBetRequest{PlayerID: "bob", Outcome: "B", AmountCents: 2000}, false)
	resp.Body.Close()

	// Switching outcome is rejected
	resp = doJSON(t, http.MethodPost, srv.URL, betsPath,
		dto.PlaceBetRequest{PlayerID: "alice", Outcome: "DRAW", AmountCents: 100}, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("outcome switch: status %d, want 409", resp.StatusCode)
	}

	// Kickoff closes the window
	clock = start
	resp = doJSON(t, http.MethodPost, srv.URL, betsPath,
		dto.PlaceBetRequest{PlayerID: "carol", Outcome: "A", AmountCents: 100}, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("bet at kickoff: status %d, want 409", resp.StatusCode)
	}

	// Resolve (admin)
	resolvePath := fmt.Sprintf("/ledger/events/%s/resolve", ev.EventID)
	resp = doJSON(t, http.MethodPost, srv.URL, resolvePath, dto.ResolveEventRequest{Outcome: "A"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: status %d", resp.StatusCode)
	}
	resolved := decode[dto.EventResponse](t, resp)
	if !resolved.Resolved || resolved.Winning != "A" {
		t.Errorf("resolved event: %+v", resolved)
	}

	resp = doJSON(t, http.MethodPost, srv.URL, resolvePath, dto.ResolveEventRequest{Outcome: "B"}, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("double resolve: status %d, want 409", resp.StatusCode)
	}

	// Claim
	claimPath := fmt.Sprintf("/ledger/events/%s/claim", ev.EventID)
	resp = doJSON(t, http.MethodPost, srv.URL, claimPath, dto.ClaimRequest{PlayerID: "alice"}, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim: status %d", resp.StatusCode)
	}
	claim := decode[dto.ClaimResponse](t, resp)
	if claim.PayoutCents != 3000 {
		t.Errorf("payout = %d, want 3000", claim.PayoutCents)
	}

	resp = doJSON(t, http.MethodPost, srv.URL, claimPath, dto.ClaimRequest{PlayerID: "alice"}, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("double claim: status %d, want 409", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, srv.URL, claimPath, dto.ClaimRequest{PlayerID: "bob"}, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("loser claim: status %d, want 409", resp.StatusCode)
	}

	// Retire (admin)
	deletePath := "/ledger/events/" + ev.EventID
	resp = doJSON(t, http.MethodDelete, srv.URL, deletePath, nil, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: status %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL, deletePath, nil, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", resp.StatusCode)
	}

	// Every committed transition produced a settlement event.
	want := []string{"market_created", "market_resolved", "reward_claimed", "market_retired"}
	got := publ.types()
	if len(got) != len(want) {
		t.Fatalf("settlement events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("settlement event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPlayerStats(t *testing.T) {
	srv, store, _ := newTestServer(t)
	clock := time.Now().UTC()
	store.SetNow(func() time.Time { return clock })

	resp := doJSON(t, http.MethodPost, srv.URL, "/ledger/initialize",
		dto.InitializeRequest{OwnerID: "house", DepositCents: 0}, true)
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, srv.URL, "/ledger/events",
		dto.CreateEventRequest{ExternalID: 7, TeamA: "Spurs", TeamB: "West Ham", StartTime: clock.Add(time.Hour)}, true)
	ev := decode[dto.EventResponse](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL, fmt.Sprintf("/ledger/events/%s/bets", ev.EventID),
		dto.PlaceBetRequest{PlayerID: "alice", Outcome: "DRAW", AmountCents: 350}, false)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL, "/ledger/players/alice/stats", nil, false)
	st := decode[dto.PlayerStatsResponse](t, resp)
	if st.TotalWageredCents != 350 || st.TotalWonCents != 0 {
		t.Errorf("stats = %+v", st)
	}

	resp = doJSON(t, http.MethodGet, srv.URL, "/ledger/players/nobody/stats", nil, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown player stats: status %d, want 404", resp.StatusCode)
	}
}
