package sign

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSignVerify(t *testing.T) {
	body := []byte(`{"externalId":42}`)
	sig := Sign("secret", http.MethodPost, "/ledger/events", body)

	if !Verify("secret", http.MethodPost, "/ledger/events", body, sig) {
		t.Error("valid signature rejected")
	}
	if Verify("other", http.MethodPost, "/ledger/events", body, sig) {
		t.Error("signature accepted with wrong secret")
	}
	if Verify("secret", http.MethodDelete, "/ledger/events", body, sig) {
		t.Error("signature reusable across methods")
	}
	if Verify("secret", http.MethodPost, "/ledger/events/x", body, sig) {
		t.Error("signature reusable across paths")
	}
	if Verify("secret", http.MethodPost, "/ledger/events", []byte(`{}`), sig) {
		t.Error("signature reusable across bodies")
	}
}

func TestMiddleware(t *testing.T) {
	var gotBody []byte
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.Bytes()
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware("secret")(next)

	body := []byte(`{"ownerId":"house"}`)
	req := httptest.NewRequest(http.MethodPost, "/ledger/initialize", bytes.NewReader(body))
	req.Header.Set(Header, Sign("secret", http.MethodPost, "/ledger/initialize", body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("signed request: status %d", rec.Code)
	}
	// The body must still be readable after the middleware.
	if !bytes.Equal(gotBody, body) {
		t.Errorf("handler body = %q, want %q", gotBody, body)
	}

	req = httptest.NewRequest(http.MethodPost, "/ledger/initialize", bytes.NewReader(body))
	req.Header.Set(Header, "deadbeef")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad signature: status %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ledger/initialize", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing signature: status %d, want 401", rec.Code)
	}
}
