package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Optional marca explícitamente si un campo viene en la actualización.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// DebtUpdate enumera todas las columnas actualizables. Los repositorios
// construyen el SQL solo a partir de estos campos.
type DebtUpdate struct {
	Name         Optional[string]
	GovernmentID Optional[string]
	Email        Optional[string]
	Amount       Optional[decimal.Decimal]
	DueDate      Optional[time.Time]
	Status       Optional[Status]
}

func (u DebtUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.GovernmentID.Set && !u.Email.Set &&
		!u.Amount.Set && !u.DueDate.Set && !u.Status.Set
}

func (u DebtUpdate) Validate() error {
	if u.IsEmpty() {
		return ErrEmptyUpdate
	}
	if u.Amount.Set && u.Amount.Value.IsNegative() {
		return fmt.Errorf("%w: debt_amount must be non-negative", ErrInvalidDebt)
	}
	if u.Status.Set && !u.Status.Value.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidDebt, u.Status.Value)
	}
	return nil
}

// Apply vuelca la actualización sobre una deuda en memoria.
func (u DebtUpdate) Apply(d *Debt) {
	if u.Name.Set {
		d.Name = u.Name.Value
	}
	if u.GovernmentID.Set {
		d.GovernmentID = u.GovernmentID.Value
	}
	if u.Email.Set {
		d.Email = u.Email.Value
	}
	if u.Amount.Set {
		d.Amount = u.Amount.Value
	}
	if u.DueDate.Set {
		d.DueDate = u.DueDate.Value
	}
	if u.Status.Set {
		d.Status = u.Status.Value
	}
}
