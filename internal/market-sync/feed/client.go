package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRateLimit = 2.0 // req/s — o feed é público, sem necessidade de mais
	defaultBurst     = 2
)

// Client consome o feed de resultados (formato FPL): somente leitura, sem
// autenticação, polling puro. Falha de transporte devolve resultado vazio e é
// logada — para o chamador, um ciclo vazio significa "nada a fazer", nunca
// "não existem partidas".
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// Option configura o cliente do feed
type Option func(*Client)

// WithHTTPClient troca o http.Client (timeouts customizados, testes)
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit ajusta o limitador de requisições
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient cria o cliente do feed apontando para baseURL
func NewClient(baseURL string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TeamNames retorna o mapa teamId -> nome. Vazio em caso de falha.
func (c *Client) TeamNames(ctx context.Context) map[int64]string {
	var resp bootstrapResponse
	if err := c.get(ctx, "/bootstrap-static/", &resp); err != nil {
		c.log.Warn("feed teams fetch failed", zap.Error(err))
		return map[int64]string{}
	}
	names := make(map[int64]string, len(resp.Teams))
	for _, t := range resp.Teams {
		names[t.ID] = t.Name
	}
	return names
}

// Fixtures retorna todas as partidas conhecidas pelo feed. Vazio em caso de falha.
func (c *Client) Fixtures(ctx context.Context) []Fixture {
	var fixtures []Fixture
	if err := c.get(ctx, "/fixtures/", &fixtures); err != nil {
		c.log.Warn("feed fixtures fetch failed", zap.Error(err))
		return nil
	}
	return fixtures
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed http %d on %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
