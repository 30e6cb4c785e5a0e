package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	debtDomain "github.com/davicafu/boletolab/internal/debt/domain"
)

// OutcomeRepo guarda un registro por batch procesado para analítica.
type OutcomeRepo struct {
	db *sql.DB
}

// Verificación estática de la interfaz.
var _ debtDomain.OutcomeRecorder = (*OutcomeRepo)(nil)

// NewOutcomeRepo es el constructor.
func NewOutcomeRepo(addr string, dbName string) (*OutcomeRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return NewOutcomeRepoFromDB(conn), nil
}

func NewOutcomeRepoFromDB(db *sql.DB) *OutcomeRepo {
	return &OutcomeRepo{db: db}
}

// RecordBatch inserta el resultado de un batch. ClickHouse solo acepta
// inserciones dentro de una transacción preparada.
func (r *OutcomeRepo) RecordBatch(ctx context.Context, o debtDomain.BatchOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO debt_batch_outcomes (
		run_id, batch_index, size, succeeded, failed, committed, started_at, finished_at, event_time)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx,
		o.RunID,
		uint32(o.BatchIndex),
		uint32(o.Size),
		uint32(o.Succeeded),
		uint32(o.Failed),
		o.Committed,
		o.StartedAt,
		o.FinishedAt,
		time.Now().UTC(),
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record batch %d of run %s: %w", o.BatchIndex, o.RunID, err)
	}

	return tx.Commit()
}

// InitSchema crea la tabla en ClickHouse si no existe.
func (r *OutcomeRepo) InitSchema() error {
	// Particionada por mes y ordenada por ejecución.
	query := `
		CREATE TABLE IF NOT EXISTS debt_batch_outcomes (
			run_id      UUID,
			batch_index UInt32,
			size        UInt32,
			succeeded   UInt32,
			failed      UInt32,
			committed   Bool,
			started_at  DateTime64(3),
			finished_at DateTime64(3),
			event_time  DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (run_id, batch_index);
	`
	_, err := r.db.Exec(query)
	return err
}
