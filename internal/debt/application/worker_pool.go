package application

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

const DefaultMaxWorkers = 1000

// WorkerPool procesa un batch con como mucho maxWorkers deudas en vuelo.
// Los fallos se escriben al momento como FAILED; los éxitos se devuelven para
// el commit masivo del batch. Las deudas que no estén PENDING se ignoran.
//
// No se aplica timeout a Generate/Notify: una llamada colgada ocupa su slot
// indefinidamente.
type WorkerPool struct {
	repo       domain.DebtRepository
	generator  domain.BoletoGenerator
	notifier   domain.Notifier
	maxWorkers int
	log        *zap.Logger
}

func NewWorkerPool(
	repo domain.DebtRepository,
	generator domain.BoletoGenerator,
	notifier domain.Notifier,
	maxWorkers int,
	log *zap.Logger,
) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &WorkerPool{
		repo:       repo,
		generator:  generator,
		notifier:   notifier,
		maxWorkers: maxWorkers,
		log:        log,
	}
}

// ProcessBatch vuelve cuando todas las deudas llegaron a un resultado final.
func (p *WorkerPool) ProcessBatch(ctx context.Context, debts []*domain.Debt) []uuid.UUID {
	var (
		mu        sync.Mutex
		succeeded = make([]uuid.UUID, 0, len(debts))
		g         errgroup.Group
	)
	g.SetLimit(p.maxWorkers)

	for _, debt := range debts {
		// Go bloquea hasta que haya un slot libre.
		g.Go(func() error {
			if !debt.Status.CanTransitionTo(domain.StatusProcessed) {
				p.log.Warn("⚠️ Skipping debt that is not PENDING",
					zap.String("debt_id", debt.ID.String()),
					zap.String("status", string(debt.Status)),
				)
				return nil
			}
			if err := p.processDebt(ctx, debt); err != nil {
				p.handleFailure(ctx, debt, err)
				return nil
			}
			if err := debt.MarkProcessed(); err != nil {
				p.log.Error("❌ Invalid status transition", zap.String("debt_id", debt.ID.String()), zap.Error(err))
				return nil
			}
			mu.Lock()
			succeeded = append(succeeded, debt.ID)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return succeeded
}

func (p *WorkerPool) processDebt(ctx context.Context, debt *domain.Debt) *domain.RecordProcessingError {
	boleto, err := p.generator.Generate(ctx, debt)
	if err != nil {
		return &domain.RecordProcessingError{DebtID: debt.ID, Stage: "generate", Err: err}
	}

	if err := p.notifier.Notify(ctx, debt.Email, debt.ID, boleto); err != nil {
		return &domain.RecordProcessingError{DebtID: debt.ID, Stage: "notify", Err: err}
	}

	p.log.Debug("Debt processed", zap.String("debt_id", debt.ID.String()))
	return nil
}

func (p *WorkerPool) handleFailure(ctx context.Context, debt *domain.Debt, err *domain.RecordProcessingError) {
	p.log.Warn("⚠️ Debt processing failed",
		zap.String("debt_id", err.DebtID.String()),
		zap.String("stage", err.Stage),
		zap.Error(err.Err),
	)

	if trErr := debt.MarkFailed(); trErr != nil {
		p.log.Error("❌ Invalid status transition", zap.String("debt_id", debt.ID.String()), zap.Error(trErr))
		return
	}

	if markErr := p.repo.MarkFailed(ctx, err.DebtID); markErr != nil {
		// El registro queda PENDING y se reintentará en la próxima ejecución.
		p.log.Error("❌ Could not mark debt as FAILED",
			zap.String("debt_id", err.DebtID.String()),
			zap.Error(markErr),
		)
	}
}
