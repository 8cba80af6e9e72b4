package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/sports-hub-poc/internal/market-view/dto"
)

// ReadRepo consulta o banco do ledger em modo somente leitura
type ReadRepo struct {
	DB *sql.DB
}

const selectMarket = `
	SELECT external_id, id, team_a, team_b, start_time,
	       outcome_a_cents, outcome_b_cents, draw_cents, total_cents,
	       resolved, COALESCE(winning_outcome, '')
	FROM events
`

func scanMarket(rows interface{ Scan(...any) error }) (dto.Market, error) {
	var m dto.Market
	err := rows.Scan(&m.ExternalID, &m.EventID, &m.TeamA, &m.TeamB, &m.StartTime,
		&m.PoolACents, &m.PoolBCents, &m.DrawCents, &m.TotalCents,
		&m.Resolved, &m.Winning)
	return m, err
}

// ListMarkets retorna todos os mercados ordenados por horário de início
func (r *ReadRepo) ListMarkets(ctx context.Context) ([]dto.Market, error) {
	rows, err := r.DB.QueryContext(ctx, selectMarket+` ORDER BY start_time, external_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dto.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMarket retorna um mercado pelo identificador externo da partida
func (r *ReadRepo) GetMarket(ctx context.Context, externalID int64) (dto.Market, error) {
	row := r.DB.QueryRowContext(ctx, selectMarket+` WHERE external_id = $1;`, externalID)
	return scanMarket(row)
}
