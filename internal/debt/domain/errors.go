package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrDebtNotFound      = errors.New("debt not found")
	ErrInvalidDebt       = errors.New("invalid debt")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyUpdate       = errors.New("the update payload cannot be empty")

	// Errores de la capacidad de notificación
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidValue  = errors.New("invalid value")
	ErrNotification  = errors.New("notification failed")
	ErrInvalidHeader = errors.New("invalid csv header")
)

// ParseError identifica la fila y el campo que invalidan un upload completo.
type ParseError struct {
	Line  int // línea del documento, la cabecera es la línea 1
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line == 0:
		return fmt.Sprintf("csv parse error: %v", e.Err)
	case e.Field == "":
		return fmt.Sprintf("csv parse error at line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("csv parse error at line %d, field %s (%q): %v", e.Line, e.Field, e.Value, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreError envuelve cualquier fallo de la capa de persistencia.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// RecordProcessingError queda aislado a un único registro.
type RecordProcessingError struct {
	DebtID uuid.UUID
	Stage  string // "generate" o "notify"
	Err    error
}

func (e *RecordProcessingError) Error() string {
	return fmt.Sprintf("debt %s failed at %s: %v", e.DebtID, e.Stage, e.Err)
}

func (e *RecordProcessingError) Unwrap() error { return e.Err }
