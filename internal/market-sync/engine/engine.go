package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-hub-poc/internal/ledger-service/dto"
	"github.com/radieske/sports-hub-poc/internal/market-sync/dedup"
	"github.com/radieske/sports-hub-poc/internal/market-sync/feed"
	"github.com/radieske/sports-hub-poc/internal/market-sync/ledgerclient"
	"github.com/radieske/sports-hub-poc/pkg/contracts/events"
)

// Feed é a visão do engine sobre o feed de resultados
type Feed interface {
	TeamNames(ctx context.Context) map[int64]string
	Fixtures(ctx context.Context) []feed.Fixture
}

// Ledger é a visão do engine sobre a API de instruções do ledger
type Ledger interface {
	CreateEvent(ctx context.Context, externalID int64, teamA, teamB string, startTime time.Time) (*dto.EventResponse, error)
	ListEvents(ctx context.Context) ([]dto.EventResponse, error)
	ListBets(ctx context.Context, eventID string) ([]dto.BetResponse, error)
	ResolveEvent(ctx context.Context, eventID, outcome string) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// SnapshotPublisher publica a projeção da fase Display (Kafka)
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, s events.MarketSnapshot) error
}

// Engine orquestra as quatro fases do sync: descobrir/criar, exibir, resolver
// e liquidar/recolher. Cada fase é idempotente em relação à verdade do ledger;
// os conjuntos do dedup só evitam trabalho redundante.
type Engine struct {
	Log    *zap.Logger
	Feed   Feed
	Ledger Ledger
	Dedup  *dedup.Store
	Publ   SnapshotPublisher // opcional; Display vira no-op de publicação sem ele

	CreateHorizon time.Duration // janela futura de criação (default 24h)
	BatchLimit    int           // teto de criações por ciclo (default 10)
	Workers       int           // fan-out máximo por fase (default 4)
	Retries       int           // re-tentativas de submit por item (default 3)
	ItemTimeout   time.Duration // timeout por chamada de item (default 10s)

	Now func() time.Time

	// Callbacks de métricas por fase (counter++)
	OnCreated  func()
	OnResolved func()
	OnRetired  func()
	OnSnapshot func()
	OnError    func(stage string)

	mu      sync.Mutex
	version int64 // monotônico por ciclo de Display
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) horizon() time.Duration {
	if e.CreateHorizon > 0 {
		return e.CreateHorizon
	}
	return 24 * time.Hour
}

func (e *Engine) batchLimit() int {
	if e.BatchLimit > 0 {
		return e.BatchLimit
	}
	return 10
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return 4
}

func (e *Engine) retries() int {
	if e.Retries > 0 {
		return e.Retries
	}
	return 3
}

func (e *Engine) itemTimeout() time.Duration {
	if e.ItemTimeout > 0 {
		return e.ItemTimeout
	}
	return 10 * time.Second
}

func (e *Engine) fail(stage string) {
	if e.OnError != nil {
		e.OnError(stage)
	}
}

// WarmDedup reconstrói o registro de idempotência a partir de um scan
// autoritativo do ledger. Chamado na subida do processo; falha só custa
// leituras redundantes nos próximos ciclos.
func (e *Engine) WarmDedup(ctx context.Context) {
	evs, err := e.Ledger.ListEvents(ctx)
	if err != nil {
		e.Log.Warn("dedup warm skipped", zap.Error(err))
		return
	}
	var created, resolved []int64
	for _, ev := range evs {
		created = append(created, ev.ExternalID)
		if ev.Resolved {
			resolved = append(resolved, ev.ExternalID)
		}
	}
	e.Dedup.Warm(created, resolved)
	e.Log.Info("dedup warmed", zap.Int("created", len(created)), zap.Int("resolved", len(resolved)))
}

// DiscoverAndCreate busca partidas ainda não iniciadas dentro do horizonte e
// cria um mercado para cada externalId desconhecido, limitado por ciclo.
func (e *Engine) DiscoverAndCreate(ctx context.Context) error {
	fixtures := e.Feed.Fixtures(ctx)
	if len(fixtures) == 0 {
		e.Log.Info("no fixtures this cycle")
		return nil
	}

	// Scan completo dos eventos já registrados: verdade do ledger primeiro,
	// dedup local só como atalho
	evs, err := e.Ledger.ListEvents(ctx)
	if err != nil {
		e.fail("ledger_list")
		return err
	}
	for _, ev := range evs {
		e.Dedup.MarkCreated(ev.ExternalID)
	}

	now := e.now()
	limit := now.Add(e.horizon())
	var candidates []feed.Fixture
	for _, f := range fixtures {
		if f.Started || f.Finished {
			continue
		}
		if f.KickoffTime.Before(now) || f.KickoffTime.After(limit) {
			continue
		}
		if e.Dedup.WasCreated(f.ID) {
			continue
		}
		candidates = append(candidates, f)
		if len(candidates) == e.batchLimit() {
			break
		}
	}
	if len(candidates) == 0 {
		e.Log.Info("no upcoming matches to create")
		return nil
	}

	names := e.Feed.TeamNames(ctx)
	e.runBounded(ctx, len(candidates), func(ctx context.Context, i int) {
		f := candidates[i]
		home, okH := names[f.HomeTeam]
		away, okA := names[f.AwayTeam]
		if !okH || !okA {
			// Registro com mapeamento de time ausente: pula só ele
			e.Log.Warn("unknown team mapping, skipping fixture",
				zap.Int64("fixture", f.ID),
				zap.Int64("team_h", f.HomeTeam),
				zap.Int64("team_a", f.AwayTeam),
			)
			e.fail("team_mapping")
			return
		}

		err := e.submit(ctx, func(ctx context.Context) error {
			_, err := e.Ledger.CreateEvent(ctx, f.ID, home, away, f.KickoffTime)
			return err
		})
		switch {
		case errors.Is(err, ledgerclient.ErrConflict):
			// Já existe no ledger: só atualiza o atalho local
			e.Dedup.MarkCreated(f.ID)
		case err != nil:
			e.Log.Warn("create event failed", zap.Int64("fixture", f.ID), zap.Error(err))
			e.fail("create")
		default:
			e.Dedup.MarkCreated(f.ID)
			e.Log.Info("market created",
				zap.Int64("fixture", f.ID),
				zap.String("match", home+" vs "+away),
				zap.Time("kickoff", f.KickoffTime),
			)
			if e.OnCreated != nil {
				e.OnCreated()
			}
		}
	})
	return nil
}

// Display publica um snapshot por mercado: projeção somente leitura para o
// caminho de consulta (projector + view). Nenhuma mutação de ledger.
func (e *Engine) Display(ctx context.Context) error {
	evs, err := e.Ledger.ListEvents(ctx)
	if err != nil {
		e.fail("ledger_list")
		return err
	}

	e.mu.Lock()
	e.version++
	version := e.version
	e.mu.Unlock()

	captured := e.now().UTC()
	for _, ev := range evs {
		if e.Publ == nil {
			continue
		}
		snap := events.MarketSnapshot{
			ExternalID: ev.ExternalID,
			EventID:    ev.EventID,
			TeamA:      ev.TeamA,
			TeamB:      ev.TeamB,
			StartTime:  ev.StartTime,
			PoolACents: ev.OutcomeACents,
			PoolBCents: ev.OutcomeBCents,
			DrawCents:  ev.DrawCents,
			TotalCents: ev.TotalCents,
			Resolved:   ev.Resolved,
			Winning:    ev.Winning,
			CapturedAt: captured,
			Source:     "market-sync-worker",
			Version:    version,
		}
		if err := e.Publ.PublishSnapshot(ctx, snap); err != nil {
			e.Log.Warn("snapshot publish failed", zap.Int64("external_id", ev.ExternalID), zap.Error(err))
			e.fail("snapshot")
			continue
		}
		if e.OnSnapshot != nil {
			e.OnSnapshot()
		}
	}
	e.Log.Info("display cycle", zap.Int("markets", len(evs)), zap.Int64("version", version))
	return nil
}

// Resolve procura, para cada mercado não resolvido, a partida terminada
// correspondente no feed e fixa o outcome no ledger. Partida sem placar
// completo deixa o mercado intocado.
func (e *Engine) Resolve(ctx context.Context) error {
	evs, err := e.Ledger.ListEvents(ctx)
	if err != nil {
		e.fail("ledger_list")
		return err
	}

	var pending []dto.EventResponse
	for _, ev := range evs {
		if !ev.Resolved && !e.Dedup.WasResolved(ev.ExternalID) {
			pending = append(pending, ev)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	fixtures := e.Feed.Fixtures(ctx)
	if len(fixtures) == 0 {
		e.Log.Info("no fixtures this cycle, nothing to resolve")
		return nil
	}
	byID := make(map[int64]feed.Fixture, len(fixtures))
	for _, f := range fixtures {
		byID[f.ID] = f
	}

	e.runBounded(ctx, len(pending), func(ctx context.Context, i int) {
		ev := pending[i]
		f, ok := byID[ev.ExternalID]
		if !ok || !f.HasResult() {
			return // ainda não terminou; próximo ciclo
		}
		outcome := winningOutcome(f)

		err := e.submit(ctx, func(ctx context.Context) error {
			return e.Ledger.ResolveEvent(ctx, ev.EventID, outcome)
		})
		switch {
		case errors.Is(err, ledgerclient.ErrConflict):
			// Já resolvido no ledger (outra execução chegou antes)
			e.Dedup.MarkResolved(ev.ExternalID)
		case err != nil:
			e.Log.Warn("resolve failed", zap.Int64("external_id", ev.ExternalID), zap.Error(err))
			e.fail("resolve")
		default:
			e.Dedup.MarkResolved(ev.ExternalID)
			e.Log.Info("market resolved",
				zap.Int64("external_id", ev.ExternalID),
				zap.String("match", ev.TeamA+" vs "+ev.TeamB),
				zap.String("winning_outcome", outcome),
			)
			if e.OnResolved != nil {
				e.OnResolved()
			}
		}
	})
	return nil
}

// SettleAndRetire recolhe mercados terminais: resolvidos e sem aposta
// vencedora pendente de claim.
func (e *Engine) SettleAndRetire(ctx context.Context) error {
	evs, err := e.Ledger.ListEvents(ctx)
	if err != nil {
		e.fail("ledger_list")
		return err
	}

	var resolved []dto.EventResponse
	for _, ev := range evs {
		if ev.Resolved {
			resolved = append(resolved, ev)
		}
	}
	if len(resolved) == 0 {
		return nil
	}

	e.runBounded(ctx, len(resolved), func(ctx context.Context, i int) {
		ev := resolved[i]
		bets, err := e.Ledger.ListBets(ctx, ev.EventID)
		if err != nil {
			e.Log.Warn("list bets failed", zap.String("event_id", ev.EventID), zap.Error(err))
			e.fail("ledger_list")
			return
		}
		for _, b := range bets {
			if b.Outcome == ev.Winning && !b.Claimed {
				return // prêmio pendente; não recolhe
			}
		}

		err = e.submit(ctx, func(ctx context.Context) error {
			return e.Ledger.DeleteEvent(ctx, ev.EventID)
		})
		switch {
		case errors.Is(err, ledgerclient.ErrConflict):
			// Guard do ledger recusou (claim chegou entre a leitura e o delete)
		case err != nil:
			e.Log.Warn("delete event failed", zap.String("event_id", ev.EventID), zap.Error(err))
			e.fail("delete")
		default:
			e.Dedup.Forget(ev.ExternalID)
			e.Log.Info("market retired", zap.Int64("external_id", ev.ExternalID))
			if e.OnRetired != nil {
				e.OnRetired()
			}
		}
	})
	return nil
}

// winningOutcome traduz o placar em outcome do ledger: time da casa é o A
func winningOutcome(f feed.Fixture) string {
	switch {
	case *f.HomeScore > *f.AwayScore:
		return "A"
	case *f.AwayScore > *f.HomeScore:
		return "B"
	default:
		return "DRAW"
	}
}

// runBounded processa n itens com fan-out limitado; erro em um item nunca
// aborta o lote
func (e *Engine) runBounded(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	sem := make(chan struct{}, e.workers())
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, i)
		}(i)
	}
	wg.Wait()
}

// submit executa uma instrução com timeout próprio e re-tentativas limitadas;
// esgotadas, o item fica para o próximo tick agendado. ErrConflict não é
// re-tentado: sem fatos novos o ledger rejeitaria de novo.
func (e *Engine) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < e.retries(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(300*attempt) * time.Millisecond):
			}
		}
		ictx, cancel := context.WithTimeout(ctx, e.itemTimeout())
		err = fn(ictx)
		cancel()
		if err == nil || errors.Is(err, ledgerclient.ErrConflict) {
			return err
		}
	}
	return err
}
