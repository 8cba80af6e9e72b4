package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres implementa o conjunto de instruções do ledger em banco Postgres.
// Cada instrução roda em uma transação: ou aplica por completo, ou não tem efeito.
type Postgres struct {
	db         *sql.DB
	adminOwner string
	now        func() time.Time
}

// NewPostgres retorna o repositório do ledger; adminOwner identifica o dono do vault
func NewPostgres(db *sql.DB, adminOwner string) *Postgres {
	return &Postgres{db: db, adminOwner: adminOwner, now: time.Now}
}

// Initialize cria o vault do administrador com o depósito inicial.
// Só pode ser chamada uma vez por dono.
func (p *Postgres) Initialize(ctx context.Context, ownerID string, depositCents int64) (*Vault, error) {
	if depositCents < 0 {
		return nil, ErrInvalidAmount
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM vaults WHERE owner_id=$1`, ownerID).Scan(&exists)
	if err == nil {
		return nil, ErrAlreadyInitialized
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	v := &Vault{
		ID:            VaultAddress(ownerID),
		OwnerID:       ownerID,
		BalanceCents:  depositCents,
		DerivationTag: TagVault,
		CreatedAt:     p.now().UTC(),
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO vaults(id, owner_id, balance_cents, derivation_tag, created_at) VALUES($1,$2,$3,$4,$5)`,
		v.ID, v.OwnerID, v.BalanceCents, v.DerivationTag, v.CreatedAt); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO vault_ledger(vault_id, operation_type, amount_cents, description) VALUES($1,'CREDIT',$2,$3)`,
		v.ID, depositCents, "initialize:"+ownerID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateEvent aloca um novo mercado para uma partida do feed.
// O índice único de external_id é o backstop de deduplicação no ledger.
func (p *Postgres) CreateEvent(ctx context.Context, externalID int64, teamA, teamB string, startTime time.Time) (*Event, error) {
	if !startTime.After(p.now()) {
		return nil, ErrInvalidStartTime
	}
	e := &Event{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		TeamA:      teamA,
		TeamB:      teamB,
		StartTime:  startTime.UTC(),
		CreatedAt:  p.now().UTC(),
		UpdatedAt:  p.now().UTC(),
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO events (id, external_id, team_a, team_b, start_time,
			outcome_a_cents, outcome_b_cents, draw_cents, total_cents,
			resolved, winning_outcome, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,0,0,0,0,FALSE,NULL,$6,$7)`,
		e.ID, e.ExternalID, e.TeamA, e.TeamB, e.StartTime, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEventExists
		}
		return nil, err
	}
	return e, nil
}

// PlaceBet transfere a stake do jogador para o vault e atualiza os pools do
// evento, a aposta e as estatísticas do jogador em uma única transação.
// Apostar de novo no mesmo outcome soma a stake; outcome diferente é rejeitado.
func (p *Postgres) PlaceBet(ctx context.Context, eventID, playerID string, outcome Outcome, amountCents int64) (*Bet, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ev, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if !p.now().Before(ev.StartTime) {
		return nil, ErrBettingClosed
	}

	var vaultID string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM vaults WHERE owner_id=$1 FOR UPDATE`, p.adminOwner).Scan(&vaultID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrVaultNotFound
		}
		return nil, err
	}

	bet := &Bet{
		ID:          BetAddress(eventID, playerID),
		EventID:     eventID,
		PlayerID:    playerID,
		Outcome:     outcome,
		AmountCents: amountCents,
		CreatedAt:   p.now().UTC(),
	}

	var existing Outcome
	var existingAmount int64
	err = tx.QueryRowContext(ctx,
		`SELECT outcome, amount_cents FROM bets WHERE event_id=$1 AND player_id=$2 FOR UPDATE`,
		eventID, playerID).Scan(&existing, &existingAmount)
	switch {
	case err == sql.ErrNoRows:
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO bets(id, event_id, player_id, outcome, amount_cents, claimed, created_at)
			VALUES($1,$2,$3,$4,$5,FALSE,$6)`,
			bet.ID, bet.EventID, bet.PlayerID, bet.Outcome, bet.AmountCents, bet.CreatedAt); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if existing != outcome {
			return nil, ErrOutcomeMismatch
		}
		bet.AmountCents = existingAmount + amountCents
		if _, err = tx.ExecContext(ctx,
			`UPDATE bets SET amount_cents = amount_cents + $1 WHERE id=$2`, amountCents, bet.ID); err != nil {
			return nil, err
		}
	}

	poolColumn := map[Outcome]string{
		OutcomeA:    "outcome_a_cents",
		OutcomeB:    "outcome_b_cents",
		OutcomeDraw: "draw_cents",
	}[outcome]
	if _, err = tx.ExecContext(ctx,
		`UPDATE events SET `+poolColumn+` = `+poolColumn+` + $1, total_cents = total_cents + $1, updated_at = NOW() WHERE id=$2`,
		amountCents, eventID); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE vaults SET balance_cents = balance_cents + $1 WHERE id=$2`, amountCents, vaultID); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO vault_ledger(vault_id, operation_type, amount_cents, description) VALUES($1,'CREDIT',$2,$3)`,
		vaultID, amountCents, "bet:"+bet.ID); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO player_stats(id, player_id, total_wagered_cents, total_won_cents)
		VALUES($1,$2,$3,0)
		ON CONFLICT (player_id) DO UPDATE SET total_wagered_cents = player_stats.total_wagered_cents + $3`,
		StatsAddress(playerID), playerID, amountCents); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return bet, nil
}

// ResolveEvent fixa o outcome vencedor. Transição única: uma vez resolvido,
// winning_outcome é imutável.
func (p *Postgres) ResolveEvent(ctx context.Context, eventID string, outcome Outcome) (*Event, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ev, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Resolved {
		return nil, ErrAlreadyResolved
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE events SET resolved=TRUE, winning_outcome=$1, updated_at=NOW() WHERE id=$2`,
		outcome, eventID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	ev.Resolved = true
	ev.Winning = outcome
	return ev, nil
}

// DistributeRewards paga o prêmio parimutuel da aposta vencedora do jogador e
// marca a aposta como claimed. Uso único por aposta.
func (p *Postgres) DistributeRewards(ctx context.Context, eventID, playerID string) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	ev, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	if !ev.Resolved {
		return 0, ErrNotResolved
	}

	var betID string
	var betOutcome Outcome
	var stake int64
	var claimed bool
	err = tx.QueryRowContext(ctx,
		`SELECT id, outcome, amount_cents, claimed FROM bets WHERE event_id=$1 AND player_id=$2 FOR UPDATE`,
		eventID, playerID).Scan(&betID, &betOutcome, &stake, &claimed)
	if err == sql.ErrNoRows {
		return 0, ErrBetNotFound
	} else if err != nil {
		return 0, err
	}
	if betOutcome != ev.Winning {
		return 0, ErrNotWinner
	}
	if claimed {
		return 0, ErrAlreadyClaimed
	}

	winningPool := ev.PoolFor(ev.Winning)
	losingPool := ev.TotalCents - winningPool
	payout, err := Payout(stake, winningPool, losingPool)
	if err != nil {
		return 0, err
	}

	var vaultID string
	var balance int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM vaults WHERE owner_id=$1 FOR UPDATE`, p.adminOwner).Scan(&vaultID, &balance)
	if err == sql.ErrNoRows {
		return 0, ErrVaultNotFound
	} else if err != nil {
		return 0, err
	}
	if balance < payout {
		return 0, ErrInsufficientVault
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE vaults SET balance_cents = balance_cents - $1 WHERE id=$2`, payout, vaultID); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO vault_ledger(vault_id, operation_type, amount_cents, description) VALUES($1,'DEBIT',$2,$3)`,
		vaultID, payout, "claim:"+betID); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE bets SET claimed=TRUE WHERE id=$1`, betID); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE player_stats SET total_won_cents = total_won_cents + $1 WHERE player_id=$2`,
		payout, playerID); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return payout, nil
}

// DeleteEvent recolhe o mercado terminal: exige resolvido e nenhuma aposta
// vencedora pendente de claim (perdedoras nunca podem fazer claim).
func (p *Postgres) DeleteEvent(ctx context.Context, eventID string) (*Event, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ev, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.Resolved {
		return nil, ErrNotSettleable
	}

	var pending bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bets WHERE event_id=$1 AND outcome=$2 AND NOT claimed)`,
		eventID, ev.Winning).Scan(&pending); err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrNotSettleable
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM bets WHERE event_id=$1`, eventID); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id=$1`, eventID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return ev, nil
}

// GetVault retorna o vault do administrador
func (p *Postgres) GetVault(ctx context.Context) (*Vault, error) {
	var v Vault
	err := p.db.QueryRowContext(ctx,
		`SELECT id, owner_id, balance_cents, derivation_tag, created_at FROM vaults WHERE owner_id=$1`,
		p.adminOwner).Scan(&v.ID, &v.OwnerID, &v.BalanceCents, &v.DerivationTag, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrVaultNotFound
	} else if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetEvent retorna um snapshot (leitura eventualmente consistente) do evento
func (p *Postgres) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	row := p.db.QueryRowContext(ctx, selectEvent+` WHERE id=$1`, eventID)
	return scanEvent(row)
}

// ListEvents lista todos os eventos do ledger (full scan; escala pequena)
func (p *Postgres) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := p.db.QueryContext(ctx, selectEvent+` ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ListBets lista as apostas de um evento (filtro por igualdade de event_id)
func (p *Postgres) ListBets(ctx context.Context, eventID string) ([]Bet, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, event_id, player_id, outcome, amount_cents, claimed, created_at
		 FROM bets WHERE event_id=$1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.EventID, &b.PlayerID, &b.Outcome, &b.AmountCents, &b.Claimed, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetPlayerStats retorna o agregado de um jogador
func (p *Postgres) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	var s PlayerStats
	err := p.db.QueryRowContext(ctx,
		`SELECT id, player_id, total_wagered_cents, total_won_cents FROM player_stats WHERE player_id=$1`,
		playerID).Scan(&s.ID, &s.PlayerID, &s.TotalWageredCents, &s.TotalWonCents)
	if err == sql.ErrNoRows {
		return nil, ErrBetNotFound
	} else if err != nil {
		return nil, err
	}
	return &s, nil
}

const selectEvent = `
	SELECT id, external_id, team_a, team_b, start_time,
	       outcome_a_cents, outcome_b_cents, draw_cents, total_cents,
	       resolved, winning_outcome, created_at, updated_at
	FROM events`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var e Event
	var winning sql.NullString
	err := row.Scan(&e.ID, &e.ExternalID, &e.TeamA, &e.TeamB, &e.StartTime,
		&e.OutcomeACents, &e.OutcomeBCents, &e.DrawCents, &e.TotalCents,
		&e.Resolved, &winning, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	} else if err != nil {
		return nil, err
	}
	if winning.Valid {
		e.Winning = Outcome(winning.String)
	}
	return &e, nil
}

// lockEvent carrega e trava a linha do evento dentro da transação corrente
func lockEvent(ctx context.Context, tx *sql.Tx, eventID string) (*Event, error) {
	row := tx.QueryRowContext(ctx, selectEvent+` WHERE id=$1 FOR UPDATE`, eventID)
	return scanEvent(row)
}

// isUniqueViolation detecta violação de índice único do Postgres (23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
