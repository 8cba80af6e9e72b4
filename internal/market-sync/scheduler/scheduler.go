package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Phase é uma fase do sync com cadência própria. O guard running impede que um
// tick reentre enquanto o anterior ainda executa: o novo tick é pulado, não
// enfileirado — a fase roda de novo no próximo intervalo.
type Phase struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	running atomic.Bool
}

// Scheduler dispara cada fase no seu próprio timer, mais uma passada imediata
// de todas na subida. Fases são independentes: a ordem correta
// (criar → resolver → liquidar) é garantida pelo estado do ledger, não pelo
// relógio.
type Scheduler struct {
	Log    *zap.Logger
	Phases []*Phase

	// Callbacks de métricas
	OnTick    func(phase string)
	OnSkipped func(phase string)
	OnFailed  func(phase string)
}

// Start roda o scheduler até o contexto ser cancelado
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup

	// Passada imediata na subida
	for _, p := range s.Phases {
		s.fire(ctx, p)
	}

	for _, p := range s.Phases {
		wg.Add(1)
		go func(p *Phase) {
			defer wg.Done()
			ticker := time.NewTicker(p.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.fire(ctx, p)
				}
			}
		}(p)
	}

	wg.Wait()
}

// fire executa um tick da fase em goroutine própria, respeitando o guard
func (s *Scheduler) fire(ctx context.Context, p *Phase) {
	if !p.running.CompareAndSwap(false, true) {
		s.Log.Warn("phase still running, tick skipped", zap.String("phase", p.Name))
		if s.OnSkipped != nil {
			s.OnSkipped(p.Name)
		}
		return
	}
	if s.OnTick != nil {
		s.OnTick(p.Name)
	}
	go func() {
		defer p.running.Store(false)
		start := time.Now()
		if err := p.Run(ctx); err != nil && ctx.Err() == nil {
			s.Log.Warn("phase failed", zap.String("phase", p.Name), zap.Error(err))
			if s.OnFailed != nil {
				s.OnFailed(p.Name)
			}
			return
		}
		s.Log.Debug("phase done", zap.String("phase", p.Name), zap.Duration("took", time.Since(start)))
	}()
}
