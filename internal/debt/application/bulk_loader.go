package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

const DefaultLoadChunkSize = 100000

// LoadReport resume una carga masiva.
type LoadReport struct {
	Attempted int   `json:"rows"`
	Inserted  int64 `json:"inserted"`
	Chunks    int   `json:"chunks"`
}

// BulkLoader inserta deudas en chunks de tamaño fijo con semántica
// insert-if-absent. Cualquier error aborta los chunks restantes.
type BulkLoader struct {
	repo      domain.DebtRepository
	chunkSize int
	log       *zap.Logger
}

func NewBulkLoader(repo domain.DebtRepository, chunkSize int, log *zap.Logger) *BulkLoader {
	if chunkSize <= 0 {
		chunkSize = DefaultLoadChunkSize
	}
	return &BulkLoader{repo: repo, chunkSize: chunkSize, log: log}
}

func (l *BulkLoader) Load(ctx context.Context, debts []*domain.Debt) (LoadReport, error) {
	report := LoadReport{Attempted: len(debts)}

	for i, chunk := range Chunk(debts, l.chunkSize) {
		inserted, err := l.repo.InsertIgnore(ctx, chunk)
		if err != nil {
			l.log.Error("❌ Bulk insert aborted",
				zap.Int("chunk", i+1),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return report, domain.NewStoreError("bulk insert", err)
		}
		report.Chunks++
		report.Inserted += inserted
		l.log.Info("📥 Inserted chunk",
			zap.Int("chunk", i+1),
			zap.Int("size", len(chunk)),
			zap.Int64("inserted", inserted),
		)
	}

	return report, nil
}

// Chunk parte items en trozos de como mucho size elementos, sin copiar.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
