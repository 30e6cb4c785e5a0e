package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout es el formato de fecha de vencimiento aceptado en CSV y en la API.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProcessed Status = "PROCESSED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// Terminal indica que el procesamiento ya no tocará el registro.
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// CanTransitionTo solo admite PENDING -> PROCESSED y PENDING -> FAILED.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessed || next == StatusFailed
	case StatusProcessed, StatusFailed:
		return false
	default:
		return false
	}
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidDebt, raw)
	}
	return s, nil
}

// Debt representa una deuda importada desde CSV.
type Debt struct {
	ID           uuid.UUID       `json:"debtId"`
	Name         string          `json:"name"`
	GovernmentID string          `json:"governmentId"`
	Email        string          `json:"email"`
	Amount       decimal.Decimal `json:"debtAmount"`
	DueDate      time.Time       `json:"debtDueDate"`
	Status       Status          `json:"status"`
}

// --- Métodos de dominio ---

func (d *Debt) MarkProcessed() error {
	return d.transition(StatusProcessed)
}

func (d *Debt) MarkFailed() error {
	return d.transition(StatusFailed)
}

func (d *Debt) transition(next Status) error {
	if !d.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, next)
	}
	d.Status = next
	return nil
}

// FormattedAmount devuelve el importe con dos decimales ("1000.00").
func (d *Debt) FormattedAmount() string {
	return d.Amount.StringFixed(2)
}

func (d *Debt) FormattedDueDate() string {
	return d.DueDate.Format(DateLayout)
}

// ParseDate interpreta YYYY-MM-DD como fecha de calendario en UTC.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, time.UTC)
}
