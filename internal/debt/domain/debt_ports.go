package domain

import (
	"context"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/boletolab/internal/shared/domain"
	"github.com/google/uuid"
)

// ---------- Interfaces (Ports) ----------

// DebtRepository define las operaciones persistentes para Debt.
// Todas las escrituras de estado del procesamiento solo afectan filas PENDING.
type DebtRepository interface {
	// InsertIgnore inserta el lote completo en una sola operación; los IDs
	// existentes se ignoran. Devuelve cuántas filas se insertaron realmente.
	InsertIgnore(ctx context.Context, debts []*Debt) (int64, error)

	ListByStatus(ctx context.Context, status Status) ([]*Debt, error)

	// MarkProcessed es el commit masivo de éxitos de un batch.
	MarkProcessed(ctx context.Context, ids []uuid.UUID) (int64, error)

	// MarkFailed es la escritura individual e inmediata de un fallo.
	MarkFailed(ctx context.Context, id uuid.UUID) error

	// Debe devolver ErrDebtNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Debt, error)

	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria) ([]*Debt, error)

	// Debe devolver ErrDebtNotFound si ninguna fila coincide.
	Update(ctx context.Context, id uuid.UUID, upd DebtUpdate) error

	// Debe devolver ErrDebtNotFound si ninguna fila coincide.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// BoletoGenerator produce el boleto de una deuda. Determinista para la misma
// entrada salvo GeneratedAt.
type BoletoGenerator interface {
	Generate(ctx context.Context, d *Debt) (*Boleto, error)
}

// Notifier entrega el boleto al deudor. Puede invocarse en paralelo.
type Notifier interface {
	Notify(ctx context.Context, email string, debtID uuid.UUID, b *Boleto) error
}

// BatchOutcome resume un batch procesado, para analítica.
type BatchOutcome struct {
	RunID      uuid.UUID
	BatchIndex int
	Size       int
	Succeeded  int
	Failed     int
	Committed  bool
	StartedAt  time.Time
	FinishedAt time.Time
}

type OutcomeRecorder interface {
	RecordBatch(ctx context.Context, o BatchOutcome) error
}

// ---------- Helpers comunes (cache keys, etc.) ----------

func DebtCacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("debt:id:%s", id.String())
}
