package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/radieske/sports-hub-poc/internal/ledger-service/dto"
	"github.com/radieske/sports-hub-poc/internal/ledger-service/sign"
)

// ErrConflict indica que o ledger rejeitou a instrução por validação (409):
// o fato já está registrado ou o guard falhou. Re-tentar sem fatos novos
// falharia identicamente.
var ErrConflict = errors.New("ledger rejected instruction")

// Client chama a API de instruções do ledger-service assinando as rotas
// administrativas com a credencial do processo.
type Client struct {
	BaseURL     string
	AdminSecret string
	HTTP        *http.Client
}

// New cria o cliente do ledger com timeout padrão
func New(base, adminSecret string) *Client {
	return &Client{
		BaseURL:     base,
		AdminSecret: adminSecret,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
	}
}

// Initialize cria o vault do administrador (idempotente via ErrConflict)
func (c *Client) Initialize(ctx context.Context, ownerID string, depositCents int64) error {
	req := dto.InitializeRequest{OwnerID: ownerID, DepositCents: depositCents}
	return c.doSigned(ctx, http.MethodPost, "/ledger/initialize", req, nil)
}

// CreateEvent cria um mercado para a partida do feed
func (c *Client) CreateEvent(ctx context.Context, externalID int64, teamA, teamB string, startTime time.Time) (*dto.EventResponse, error) {
	req := dto.CreateEventRequest{ExternalID: externalID, TeamA: teamA, TeamB: teamB, StartTime: startTime}
	var out dto.EventResponse
	if err := c.doSigned(ctx, http.MethodPost, "/ledger/events", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEvents retorna o scan completo dos mercados do ledger
func (c *Client) ListEvents(ctx context.Context) ([]dto.EventResponse, error) {
	var out []dto.EventResponse
	if err := c.do(ctx, http.MethodGet, "/ledger/events", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBets retorna as apostas de um mercado
func (c *Client) ListBets(ctx context.Context, eventID string) ([]dto.BetResponse, error) {
	var out []dto.BetResponse
	if err := c.do(ctx, http.MethodGet, "/ledger/events/"+eventID+"/bets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveEvent fixa o outcome vencedor de um mercado
func (c *Client) ResolveEvent(ctx context.Context, eventID, outcome string) error {
	req := dto.ResolveEventRequest{Outcome: outcome}
	return c.doSigned(ctx, http.MethodPost, "/ledger/events/"+eventID+"/resolve", req, nil)
}

// DeleteEvent recolhe um mercado terminal
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	return c.doSigned(ctx, http.MethodDelete, "/ledger/events/"+eventID, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, path, body, out, false)
}

func (c *Client) doSigned(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, path, body, out, true)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, signed bool) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if signed {
		req.Header.Set(sign.Header, sign.Sign(c.AdminSecret, method, path, payload))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode >= 300:
		var e dto.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("ledger http %d on %s %s: %s", resp.StatusCode, method, path, e.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
