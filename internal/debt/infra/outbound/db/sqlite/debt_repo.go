package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	"github.com/davicafu/boletolab/internal/debt/domain"
	sharedDomain "github.com/davicafu/boletolab/internal/shared/domain"
)

// maxIDsPerStatement mantiene el UPDATE ... IN (...) por debajo del límite
// de variables de SQLite.
const maxIDsPerStatement = 500

const selectColumns = `debt_id, name, government_id, email, debt_amount, debt_due_date, status`

type DebtRepoSQLite struct {
	db *sql.DB
}

var _ domain.DebtRepository = (*DebtRepoSQLite)(nil)

func NewDebtRepoSQLite(db *sql.DB) *DebtRepoSQLite {
	return &DebtRepoSQLite{db: db}
}

// Open abre la base de datos. Con ":memory:" se limita a una conexión para
// que todas las consultas vean la misma base.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// ------------------ Escrituras masivas ------------------

// InsertIgnore inserta el lote en una transacción con una sentencia preparada.
func (r *DebtRepoSQLite) InsertIgnore(ctx context.Context, debts []*domain.Debt) (inserted int64, err error) {
	if len(debts) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO debts (`+selectColumns+`) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, d := range debts {
		res, execErr := stmt.ExecContext(ctx,
			d.ID.String(), d.Name, d.GovernmentID, d.Email,
			d.Amount.String(), d.FormattedDueDate(), string(d.Status),
		)
		if execErr != nil {
			err = fmt.Errorf("insert debt %s: %w", d.ID, execErr)
			return 0, err
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// MarkProcessed confirma los éxitos del batch en una única transacción.
func (r *DebtRepoSQLite) MarkProcessed(ctx context.Context, ids []uuid.UUID) (updated int64, err error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for start := 0; start < len(ids); start += maxIDsPerStatement {
		end := start + maxIDsPerStatement
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		args := make([]interface{}, 0, len(chunk)+2)
		args = append(args, string(domain.StatusProcessed), string(domain.StatusPending))
		for _, id := range chunk {
			args = append(args, id.String())
		}

		query := fmt.Sprintf(`UPDATE debts SET status = ? WHERE status = ? AND debt_id IN (%s)`, placeholders(len(chunk)))
		res, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			err = execErr
			return 0, err
		}
		n, _ := res.RowsAffected()
		updated += n
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return updated, nil
}

func (r *DebtRepoSQLite) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE debts SET status = ? WHERE debt_id = ? AND status = ?`,
		string(domain.StatusFailed), id.String(), string(domain.StatusPending),
	)
	return err
}

// ------------------ CRUD ------------------

func (r *DebtRepoSQLite) Update(ctx context.Context, id uuid.UUID, upd domain.DebtUpdate) error {
	sets, args := updateAssignments(upd)
	if len(sets) == 0 {
		return domain.ErrEmptyUpdate
	}
	args = append(args, id.String())

	res, err := r.db.ExecContext(ctx,
		`UPDATE debts SET `+strings.Join(sets, ", ")+` WHERE debt_id = ?`, args...)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrDebtNotFound
	}
	return nil
}

func (r *DebtRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE debt_id = ?`, id.String())
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrDebtNotFound
	}
	return nil
}

// ------------------ Lectura ------------------

func (r *DebtRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM debts WHERE debt_id = ?`, id.String())
	d, err := scanDebt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDebtNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DebtRepoSQLite) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Debt, error) {
	return r.ListByCriteria(ctx, domain.StatusCriteria{Status: status})
}

func (r *DebtRepoSQLite) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria) ([]*domain.Debt, error) {
	whereSQL, args := applyCriteria(criteria)

	query := `SELECT ` + selectColumns + ` FROM debts`
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	query += " ORDER BY rowid"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debts []*domain.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// ------------------ Helpers ------------------

// applyCriteria traduce criterios neutrales a SQL con "?" para SQLite.
// LIKE en SQLite ya ignora mayúsculas para ASCII.
func applyCriteria(criteria sharedDomain.Criteria) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	for _, c := range sharedDomain.Conditions(criteria) {
		switch v := c.Value.(type) {
		case decimal.Decimal:
			clauses = append(clauses, fmt.Sprintf("CAST(%s AS REAL) %s CAST(? AS REAL)", c.Field, c.Op))
			args = append(args, v.String())
		default:
			if c.Op == sharedDomain.OpContains {
				clauses = append(clauses, fmt.Sprintf(`%s LIKE '%%' || ? || '%%' ESCAPE '\'`, c.Field))
				args = append(args, escapeLike(fmt.Sprint(v)))
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s %s ?", c.Field, c.Op))
			args = append(args, v)
		}
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func updateAssignments(upd domain.DebtUpdate) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if upd.Name.Set {
		add(domain.FieldName, upd.Name.Value)
	}
	if upd.GovernmentID.Set {
		add(domain.FieldGovernmentID, upd.GovernmentID.Value)
	}
	if upd.Email.Set {
		add(domain.FieldEmail, upd.Email.Value)
	}
	if upd.Amount.Set {
		add(domain.FieldAmount, upd.Amount.Value.String())
	}
	if upd.DueDate.Set {
		add(domain.FieldDueDate, upd.DueDate.Value.Format(domain.DateLayout))
	}
	if upd.Status.Set {
		add(domain.FieldStatus, string(upd.Status.Value))
	}
	return sets, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDebt(row rowScanner) (*domain.Debt, error) {
	var d domain.Debt
	var idStr, amountStr, dueStr, status string
	if err := row.Scan(&idStr, &d.Name, &d.GovernmentID, &d.Email, &amountStr, &dueStr, &status); err != nil {
		return nil, err
	}

	var err error
	if d.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if d.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("invalid amount in DB: %w", err)
	}
	if d.DueDate, err = domain.ParseDate(dueStr); err != nil {
		return nil, fmt.Errorf("invalid due date in DB: %w", err)
	}
	d.Status = domain.Status(status)
	return &d, nil
}

// ------------------ Inicialización ------------------

func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS debts (
		debt_id       TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		government_id TEXT NOT NULL,
		email         TEXT NOT NULL,
		debt_amount   TEXT NOT NULL,
		debt_due_date TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'PENDING'
			CHECK (status IN ('PENDING', 'PROCESSED', 'FAILED'))
	)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_debts_status ON debts (status)`)
	return err
}
