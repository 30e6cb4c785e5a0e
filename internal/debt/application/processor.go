package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

const DefaultProcessBatchSize = 100000

// BatchProcessor es el contrato del pool que consume el orquestador.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, debts []*domain.Debt) []uuid.UUID
}

// RunSummary resume una ejecución de ProcessPending.
type RunSummary struct {
	RunID        uuid.UUID
	Loaded       int
	Batches      int
	Succeeded    int
	Failed       int
	CommitErrors int
	Committed    int64
	Interrupted  bool
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Processor carga todas las deudas PENDING y las procesa en batches
// secuenciales: el batch k+1 no empieza hasta que el commit del batch k terminó.
type Processor struct {
	repo      domain.DebtRepository
	pool      BatchProcessor
	batchSize int
	outcomes  domain.OutcomeRecorder // opcional
	log       *zap.Logger
}

func NewProcessor(repo domain.DebtRepository, pool BatchProcessor, batchSize int, outcomes domain.OutcomeRecorder, log *zap.Logger) *Processor {
	if batchSize <= 0 {
		batchSize = DefaultProcessBatchSize
	}
	return &Processor{
		repo:      repo,
		pool:      pool,
		batchSize: batchSize,
		outcomes:  outcomes,
		log:       log,
	}
}

// ProcessPending solo devuelve error si la carga inicial falla o si ctx se
// cancela entre batches. Un batch ya iniciado siempre llega a su commit.
func (p *Processor) ProcessPending(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{RunID: uuid.New(), StartedAt: time.Now().UTC()}
	log := p.log.With(zap.String("run_id", summary.RunID.String()))

	log.Info("🚀 Starting debt processing")

	debts, err := p.repo.ListByStatus(ctx, domain.StatusPending)
	if err != nil {
		log.Error("❌ Could not load pending debts", zap.Error(err))
		return summary, domain.NewStoreError("load pending", err)
	}
	summary.Loaded = len(debts)
	log.Info("📬 Pending debts loaded", zap.Int("count", len(debts)))

	if len(debts) == 0 {
		log.Info("No pending debts to process")
		summary.FinishedAt = time.Now().UTC()
		return summary, nil
	}

	batches := Chunk(debts, p.batchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			log.Warn("🛑 Processing interrupted between batches",
				zap.Int("completed_batches", i),
				zap.Int("remaining_batches", len(batches)-i),
			)
			summary.Interrupted = true
			summary.FinishedAt = time.Now().UTC()
			return summary, err
		}

		p.processBatch(context.WithoutCancel(ctx), log, summary.RunID, i, batch, &summary)
	}

	summary.FinishedAt = time.Now().UTC()
	log.Info("✅ Debt processing completed",
		zap.Int("batches", summary.Batches),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("commit_errors", summary.CommitErrors),
	)
	return summary, nil
}

func (p *Processor) processBatch(ctx context.Context, log *zap.Logger, runID uuid.UUID, index int, batch []*domain.Debt, summary *RunSummary) {
	outcome := domain.BatchOutcome{
		RunID:      runID,
		BatchIndex: index,
		Size:       len(batch),
		StartedAt:  time.Now().UTC(),
	}

	succeeded := p.pool.ProcessBatch(ctx, batch)
	outcome.Succeeded = len(succeeded)
	outcome.Failed = len(batch) - len(succeeded)

	// Los fallos ya se escribieron uno a uno; aquí solo se confirman éxitos.
	if len(succeeded) > 0 {
		updated, err := p.repo.MarkProcessed(ctx, succeeded)
		if err != nil {
			// Estos registros siguen PENDING aunque ya fueron notificados.
			log.Error("❌ Batch success commit failed",
				zap.Int("batch", index+1),
				zap.Int("succeeded", len(succeeded)),
				zap.Error(err),
			)
			summary.CommitErrors++
		} else {
			outcome.Committed = true
			summary.Committed += updated
			log.Info("Updated debts to PROCESSED", zap.Int("batch", index+1), zap.Int64("count", updated))
		}
	} else {
		outcome.Committed = true
	}

	summary.Batches++
	summary.Succeeded += outcome.Succeeded
	summary.Failed += outcome.Failed
	outcome.FinishedAt = time.Now().UTC()

	if p.outcomes != nil {
		if err := p.outcomes.RecordBatch(ctx, outcome); err != nil {
			log.Warn("⚠️ Could not record batch outcome", zap.Int("batch", index+1), zap.Error(err))
		}
	}
}
