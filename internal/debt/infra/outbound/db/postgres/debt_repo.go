package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	debtDomain "github.com/davicafu/boletolab/internal/debt/domain"
	sharedDomain "github.com/davicafu/boletolab/internal/shared/domain"
	sharedUtils "github.com/davicafu/boletolab/internal/shared/infra/utils"
)

const selectColumns = `debt_id::text, name, government_id, email, debt_amount::text, debt_due_date, status`

// DebtRepoPostgres implementa DebtRepository sobre un pool de pgx.
type DebtRepoPostgres struct {
	pool *pgxpool.Pool
}

var _ debtDomain.DebtRepository = (*DebtRepoPostgres)(nil)

func NewDebtRepoPostgres(pool *pgxpool.Pool) *DebtRepoPostgres {
	return &DebtRepoPostgres{pool: pool}
}

// Connect abre el pool y comprueba la conexión.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not ping postgres: %w", err)
	}
	return pool, nil
}

// ------------------ Escrituras masivas ------------------

// InsertIgnore envía el lote completo en una sola sentencia con unnest.
func (r *DebtRepoPostgres) InsertIgnore(ctx context.Context, debts []*debtDomain.Debt) (int64, error) {
	if len(debts) == 0 {
		return 0, nil
	}

	n := len(debts)
	ids := make([]string, n)
	names := make([]string, n)
	govIDs := make([]string, n)
	emails := make([]string, n)
	amounts := make([]string, n)
	dues := make([]string, n)
	statuses := make([]string, n)
	for i, d := range debts {
		ids[i] = d.ID.String()
		names[i] = d.Name
		govIDs[i] = d.GovernmentID
		emails[i] = d.Email
		amounts[i] = d.Amount.String()
		dues[i] = d.FormattedDueDate()
		statuses[i] = string(d.Status)
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO debts (debt_id, name, government_id, email, debt_amount, debt_due_date, status)
		SELECT u.id::uuid, u.name, u.gov, u.email, u.amount::numeric, u.due::date, u.status
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[])
			AS u(id, name, gov, email, amount, due, status)
		ON CONFLICT (debt_id) DO NOTHING`,
		ids, names, govIDs, emails, amounts, dues, statuses,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk insert debts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkProcessed confirma los éxitos de un batch en una sola sentencia.
func (r *DebtRepoPostgres) MarkProcessed(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE debts SET status = $1 WHERE debt_id = ANY($2) AND status = $3`,
		string(debtDomain.StatusProcessed), ids, string(debtDomain.StatusPending),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk mark processed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *DebtRepoPostgres) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE debts SET status = $1 WHERE debt_id = $2 AND status = $3`,
		string(debtDomain.StatusFailed), id, string(debtDomain.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// ------------------ CRUD ------------------

func (r *DebtRepoPostgres) Update(ctx context.Context, id uuid.UUID, upd debtDomain.DebtUpdate) error {
	sets, args := updateAssignments(upd)
	if len(sets) == 0 {
		return debtDomain.ErrEmptyUpdate
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE debts SET %s WHERE debt_id = $%d`, strings.Join(sets, ", "), len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return debtDomain.ErrDebtNotFound
	}
	return nil
}

func (r *DebtRepoPostgres) DeleteByID(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM debts WHERE debt_id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return debtDomain.ErrDebtNotFound
	}
	return nil
}

// ------------------ Lectura ------------------

func (r *DebtRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*debtDomain.Debt, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM debts WHERE debt_id = $1`, id)
	d, err := scanDebt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, debtDomain.ErrDebtNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *DebtRepoPostgres) ListByStatus(ctx context.Context, status debtDomain.Status) ([]*debtDomain.Debt, error) {
	return r.ListByCriteria(ctx, debtDomain.StatusCriteria{Status: status})
}

func (r *DebtRepoPostgres) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria) ([]*debtDomain.Debt, error) {
	whereSQL, args := applyCriteria(criteria)

	query := `SELECT ` + selectColumns + ` FROM debts`
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	query += " ORDER BY debt_id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debts []*debtDomain.Debt
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

// applyCriteria traduce criterios neutrales a SQL para Postgres ($1, $2...).
func applyCriteria(criteria sharedDomain.Criteria) (string, []interface{}) {
	conds := sharedDomain.Conditions(criteria)
	var clauses []string
	var args []interface{}
	for _, c := range conds {
		args = append(args, criterionArg(c))
		placeholder := fmt.Sprintf("$%d", len(args))

		switch c.Op {
		case sharedDomain.OpContains:
			clauses = append(clauses, fmt.Sprintf("CAST(%s AS TEXT) ILIKE '%%' || %s || '%%'", c.Field, placeholder))
		default:
			rhs := sharedUtils.Ternary(c.Field == debtDomain.FieldAmount, placeholder+"::numeric", placeholder)
			clauses = append(clauses, fmt.Sprintf("%s %s %s", c.Field, c.Op, rhs))
		}
	}
	return strings.Join(clauses, " AND "), args
}

func criterionArg(c sharedDomain.Criterion) interface{} {
	switch v := c.Value.(type) {
	case decimal.Decimal:
		return v.String()
	case string:
		if c.Op == sharedDomain.OpContains {
			return escapeLike(v)
		}
		return v
	default:
		return v
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// updateAssignments recorre la lista cerrada de columnas actualizables.
func updateAssignments(upd debtDomain.DebtUpdate) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column, cast string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", column, len(args), cast))
	}

	if upd.Name.Set {
		add(debtDomain.FieldName, "", upd.Name.Value)
	}
	if upd.GovernmentID.Set {
		add(debtDomain.FieldGovernmentID, "", upd.GovernmentID.Value)
	}
	if upd.Email.Set {
		add(debtDomain.FieldEmail, "", upd.Email.Value)
	}
	if upd.Amount.Set {
		add(debtDomain.FieldAmount, "::numeric", upd.Amount.Value.String())
	}
	if upd.DueDate.Set {
		add(debtDomain.FieldDueDate, "::date", upd.DueDate.Value.Format(debtDomain.DateLayout))
	}
	if upd.Status.Set {
		add(debtDomain.FieldStatus, "", string(upd.Status.Value))
	}
	return sets, args
}

func scanDebt(row pgx.Row) (*debtDomain.Debt, error) {
	var (
		d         debtDomain.Debt
		idStr     string
		amountStr string
		due       time.Time
		status    string
	)
	if err := row.Scan(&idStr, &d.Name, &d.GovernmentID, &d.Email, &amountStr, &due, &status); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in DB: %w", err)
	}

	d.ID = id
	d.Amount = amount
	d.DueDate = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	d.Status = debtDomain.Status(status)
	return &d, nil
}

// ------------------ Inicialización ------------------

func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS debts (
		debt_id       UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		government_id TEXT NOT NULL,
		email         TEXT NOT NULL,
		debt_amount   NUMERIC NOT NULL,
		debt_due_date DATE NOT NULL,
		status        TEXT NOT NULL DEFAULT 'PENDING'
			CHECK (status IN ('PENDING', 'PROCESSED', 'FAILED'))
	)`)
	if err != nil {
		return fmt.Errorf("error creating debts table: %w", err)
	}

	_, err = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_debts_status ON debts (status)`)
	if err != nil {
		return fmt.Errorf("error creating debts status index: %w", err)
	}
	return nil
}
