package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	debtDomain "github.com/davicafu/boletolab/internal/debt/domain"
	sharedDomain "github.com/davicafu/boletolab/internal/shared/domain"
)

// InMemoryDebtRepo simula DebtRepository conservando el orden de inserción.
// Los campos *Err permiten provocar fallos de almacenamiento.
type InMemoryDebtRepo struct {
	mu    sync.Mutex
	debts map[uuid.UUID]*debtDomain.Debt
	order []uuid.UUID

	InsertErr        error
	FailInsertOnCall int // 1-based; 0 desactiva
	ListErr          error
	MarkProcessedErr error
	MarkFailedErr    error

	// OnMarkProcessed se invoca (sin el lock) antes de cada commit masivo.
	OnMarkProcessed func(ids []uuid.UUID)

	insertCalls int
	calls       []string
}

var _ debtDomain.DebtRepository = (*InMemoryDebtRepo)(nil)

func NewInMemoryDebtRepo() *InMemoryDebtRepo {
	return &InMemoryDebtRepo{debts: make(map[uuid.UUID]*debtDomain.Debt)}
}

// Seed inserta deudas directamente, sin registrar la llamada.
func (r *InMemoryDebtRepo) Seed(debts ...*debtDomain.Debt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range debts {
		if _, ok := r.debts[d.ID]; ok {
			continue
		}
		cp := *d
		r.debts[d.ID] = &cp
		r.order = append(r.order, d.ID)
	}
}

func (r *InMemoryDebtRepo) InsertIgnore(ctx context.Context, debts []*debtDomain.Debt) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCalls++
	r.calls = append(r.calls, fmt.Sprintf("InsertIgnore:%d", len(debts)))

	if r.InsertErr != nil {
		return 0, r.InsertErr
	}
	if r.FailInsertOnCall > 0 && r.insertCalls == r.FailInsertOnCall {
		return 0, fmt.Errorf("insert call %d failed", r.insertCalls)
	}

	var inserted int64
	for _, d := range debts {
		if _, ok := r.debts[d.ID]; ok {
			continue
		}
		cp := *d
		r.debts[d.ID] = &cp
		r.order = append(r.order, d.ID)
		inserted++
	}
	return inserted, nil
}

func (r *InMemoryDebtRepo) ListByStatus(ctx context.Context, status debtDomain.Status) ([]*debtDomain.Debt, error) {
	return r.ListByCriteria(ctx, debtDomain.StatusCriteria{Status: status})
}

func (r *InMemoryDebtRepo) MarkProcessed(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if r.OnMarkProcessed != nil {
		r.OnMarkProcessed(ids)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf("MarkProcessed:%d", len(ids)))

	if r.MarkProcessedErr != nil {
		return 0, r.MarkProcessedErr
	}

	var updated int64
	for _, id := range ids {
		if d, ok := r.debts[id]; ok && d.Status == debtDomain.StatusPending {
			d.Status = debtDomain.StatusProcessed
			updated++
		}
	}
	return updated, nil
}

func (r *InMemoryDebtRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "MarkFailed")

	if r.MarkFailedErr != nil {
		return r.MarkFailedErr
	}
	if d, ok := r.debts[id]; ok && d.Status == debtDomain.StatusPending {
		d.Status = debtDomain.StatusFailed
	}
	return nil
}

func (r *InMemoryDebtRepo) GetByID(ctx context.Context, id uuid.UUID) (*debtDomain.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "GetByID")

	d, ok := r.debts[id]
	if !ok {
		return nil, debtDomain.ErrDebtNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *InMemoryDebtRepo) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria) ([]*debtDomain.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "ListByCriteria")

	if r.ListErr != nil {
		return nil, r.ListErr
	}

	conds := sharedDomain.Conditions(criteria)
	var list []*debtDomain.Debt
	for _, id := range r.order {
		d := r.debts[id]
		matchesAll := true
		for _, cond := range conds {
			if !matchCriterion(d, cond) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			cp := *d
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (r *InMemoryDebtRepo) Update(ctx context.Context, id uuid.UUID, upd debtDomain.DebtUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "Update")

	d, ok := r.debts[id]
	if !ok {
		return debtDomain.ErrDebtNotFound
	}
	upd.Apply(d)
	return nil
}

func (r *InMemoryDebtRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "DeleteByID")

	if _, ok := r.debts[id]; !ok {
		return debtDomain.ErrDebtNotFound
	}
	delete(r.debts, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// --- Inspección ---

func (r *InMemoryDebtRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.debts)
}

func (r *InMemoryDebtRepo) CountByStatus(status debtDomain.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.debts {
		if d.Status == status {
			n++
		}
	}
	return n
}

func (r *InMemoryDebtRepo) StatusOf(id uuid.UUID) debtDomain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.debts[id]; ok {
		return d.Status
	}
	return ""
}

// Calls devuelve una copia del registro de llamadas.
func (r *InMemoryDebtRepo) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func matchCriterion(d *debtDomain.Debt, c sharedDomain.Criterion) bool {
	switch c.Field {
	case debtDomain.FieldID:
		return matchString(d.ID.String(), c)
	case debtDomain.FieldName:
		return matchString(d.Name, c)
	case debtDomain.FieldEmail:
		return matchString(d.Email, c)
	case debtDomain.FieldGovernmentID:
		return matchString(d.GovernmentID, c)
	case debtDomain.FieldStatus:
		return matchString(string(d.Status), c)
	case debtDomain.FieldAmount:
		v, ok := c.Value.(decimal.Decimal)
		if !ok {
			return false
		}
		switch c.Op {
		case sharedDomain.OpGte:
			return d.Amount.GreaterThanOrEqual(v)
		case sharedDomain.OpLte:
			return d.Amount.LessThanOrEqual(v)
		default:
			return d.Amount.Equal(v)
		}
	}
	return false
}

func matchString(actual string, c sharedDomain.Criterion) bool {
	v, ok := c.Value.(string)
	if !ok {
		return false
	}
	if c.Op == sharedDomain.OpContains {
		return strings.Contains(strings.ToLower(actual), strings.ToLower(v))
	}
	return actual == v
}

// ---------------- testify mocks ----------------

type MockNotifier struct {
	mock.Mock
}

var _ debtDomain.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, email string, debtID uuid.UUID, b *debtDomain.Boleto) error {
	args := m.Called(ctx, email, debtID, b)
	return args.Error(0)
}

type MockBoletoGenerator struct {
	mock.Mock
}

var _ debtDomain.BoletoGenerator = (*MockBoletoGenerator)(nil)

func (m *MockBoletoGenerator) Generate(ctx context.Context, d *debtDomain.Debt) (*debtDomain.Boleto, error) {
	args := m.Called(ctx, d)
	b, _ := args.Get(0).(*debtDomain.Boleto)
	return b, args.Error(1)
}

// NotifierFunc adapta una función al puerto Notifier.
type NotifierFunc func(ctx context.Context, email string, debtID uuid.UUID, b *debtDomain.Boleto) error

func (f NotifierFunc) Notify(ctx context.Context, email string, debtID uuid.UUID, b *debtDomain.Boleto) error {
	return f(ctx, email, debtID, b)
}
