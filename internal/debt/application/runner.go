package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PendingProcessor es lo que ejecuta el Runner en cada disparo.
type PendingProcessor interface {
	ProcessPending(ctx context.Context) (RunSummary, error)
}

// Runner es la cola de procesamiento propiedad del proceso: las ejecuciones
// nunca se solapan, los disparos se agrupan y Stop espera a la ejecución en
// curso (que se corta en el siguiente límite de batch).
type Runner struct {
	processor PendingProcessor
	interval  time.Duration // 0 desactiva el polling
	trigger   chan struct{}
	log       *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(processor PendingProcessor, interval time.Duration, log *zap.Logger) *Runner {
	return &Runner{
		processor: processor,
		interval:  interval,
		trigger:   make(chan struct{}, 1),
		log:       log,
	}
}

// Start lanza el bucle en segundo plano. Llamarlo dos veces no tiene efecto.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.loop(ctx, r.done)
}

// Trigger encola una ejecución sin bloquear. Devuelve false si ya había una
// pendiente; esa ejecución cubrirá también este disparo.
func (r *Runner) Trigger() bool {
	select {
	case r.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop cancela el bucle y espera a que termine.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	r.log.Info("🚀 Processing runner started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("🛑 Processing runner stopped")
			return
		case <-r.trigger:
			r.run(ctx)
		case <-tick:
			r.run(ctx)
		}
	}
}

func (r *Runner) run(ctx context.Context) {
	summary, err := r.processor.ProcessPending(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.log.Warn("Processing run cancelled", zap.Int("batches_done", summary.Batches))
			return
		}
		r.log.Error("❌ Processing run failed", zap.String("run_id", summary.RunID.String()), zap.Error(err))
	}
}
