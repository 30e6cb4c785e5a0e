package domain

import (
	"github.com/shopspring/decimal"

	shared "github.com/davicafu/boletolab/internal/shared/domain"
)

// Nombres de columna neutrales; coinciden con el esquema SQL.
const (
	FieldID           = "debt_id"
	FieldName         = "name"
	FieldGovernmentID = "government_id"
	FieldEmail        = "email"
	FieldAmount       = "debt_amount"
	FieldDueDate      = "debt_due_date"
	FieldStatus       = "status"
)

// --- Criterios específicos para el dominio Debt ---

// IDLikeCriteria busca por subcadena del identificador.
type IDLikeCriteria struct {
	ID string
}

func (c IDLikeCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: FieldID, Op: shared.OpContains, Value: c.ID}}
}

type StatusCriteria struct {
	Status Status
}

func (c StatusCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: FieldStatus, Op: shared.OpEq, Value: string(c.Status)}}
}

type NameLikeCriteria struct {
	Name string
}

func (c NameLikeCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: FieldName, Op: shared.OpContains, Value: c.Name}}
}

type EmailLikeCriteria struct {
	Email string
}

func (c EmailLikeCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: FieldEmail, Op: shared.OpContains, Value: c.Email}}
}

type GovernmentIDCriteria struct {
	GovernmentID string
}

func (c GovernmentIDCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{{Field: FieldGovernmentID, Op: shared.OpEq, Value: c.GovernmentID}}
}

// AmountRangeCriteria usa punteros para que ambos extremos sean opcionales.
type AmountRangeCriteria struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

func (c AmountRangeCriteria) ToConditions() []shared.Criterion {
	var conds []shared.Criterion
	if c.Min != nil {
		conds = append(conds, shared.Criterion{Field: FieldAmount, Op: shared.OpGte, Value: *c.Min})
	}
	if c.Max != nil {
		conds = append(conds, shared.Criterion{Field: FieldAmount, Op: shared.OpLte, Value: *c.Max})
	}
	return conds
}

// DebtFilter agrupa los filtros opcionales del listado.
type DebtFilter struct {
	IDContains    string
	Status        *Status
	NameContains  string
	EmailContains string
	GovernmentID  string
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
}

// Criteria traduce el filtro al sistema genérico de criterios.
func (f DebtFilter) Criteria() shared.Criteria {
	var cs []shared.Criteria
	if f.IDContains != "" {
		cs = append(cs, IDLikeCriteria{ID: f.IDContains})
	}
	if f.Status != nil {
		cs = append(cs, StatusCriteria{Status: *f.Status})
	}
	if f.NameContains != "" {
		cs = append(cs, NameLikeCriteria{Name: f.NameContains})
	}
	if f.EmailContains != "" {
		cs = append(cs, EmailLikeCriteria{Email: f.EmailContains})
	}
	if f.GovernmentID != "" {
		cs = append(cs, GovernmentIDCriteria{GovernmentID: f.GovernmentID})
	}
	if f.MinAmount != nil || f.MaxAmount != nil {
		cs = append(cs, AmountRangeCriteria{Min: f.MinAmount, Max: f.MaxAmount})
	}
	return shared.And(cs...)
}
