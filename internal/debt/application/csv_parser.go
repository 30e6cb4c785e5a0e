package application

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

// Columnas reconocidas en la cabecera del CSV.
const (
	colDebtID       = "debtId"
	colName         = "name"
	colGovernmentID = "governmentId"
	colEmail        = "email"
	colDebtAmount   = "debtAmount"
	colDebtDueDate  = "debtDueDate"
)

var csvColumns = []string{colDebtID, colName, colGovernmentID, colEmail, colDebtAmount, colDebtDueDate}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV decodifica el documento completo. Una sola fila inválida invalida
// todo el upload: no existe modo de éxito parcial.
func ParseCSV(content []byte) ([]*domain.Debt, error) {
	if !utf8.Valid(content) {
		return nil, &domain.ParseError{Err: errors.New("content is not valid UTF-8")}
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &domain.ParseError{Line: 1, Err: fmt.Errorf("%w: empty document", domain.ErrInvalidHeader)}
		}
		return nil, &domain.ParseError{Line: 1, Err: err}
	}

	index, err := headerIndex(header)
	if err != nil {
		return nil, &domain.ParseError{Line: 1, Err: err}
	}

	var debts []*domain.Debt
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &domain.ParseError{Line: perr.Line, Err: perr.Err}
			}
			return nil, &domain.ParseError{Err: err}
		}

		line, _ := reader.FieldPos(0)
		debt, err := parseRecord(record, index, line)
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}

	return debts, nil
}

// headerIndex exige exactamente las columnas reconocidas, en cualquier orden.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicated column %q", domain.ErrInvalidHeader, name)
		}
		index[name] = i
	}

	var missing []string
	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", domain.ErrInvalidHeader, strings.Join(missing, ", "))
	}
	if len(index) != len(csvColumns) {
		var extra []string
		for _, name := range header {
			if !isKnownColumn(name) {
				extra = append(extra, name)
			}
		}
		return nil, fmt.Errorf("%w: unrecognized columns %s", domain.ErrInvalidHeader, strings.Join(extra, ", "))
	}
	return index, nil
}

func isKnownColumn(name string) bool {
	for _, col := range csvColumns {
		if col == name {
			return true
		}
	}
	return false
}

func parseRecord(record []string, index map[string]int, line int) (*domain.Debt, error) {
	field := func(col string) string { return record[index[col]] }
	fail := func(col string, err error) error {
		return &domain.ParseError{Line: line, Field: col, Value: field(col), Err: err}
	}

	id, err := uuid.Parse(strings.TrimSpace(field(colDebtID)))
	if err != nil {
		return nil, fail(colDebtID, err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(field(colDebtAmount)))
	if err != nil {
		return nil, fail(colDebtAmount, err)
	}
	if amount.IsNegative() {
		return nil, fail(colDebtAmount, errors.New("amount must be non-negative"))
	}

	dueDate, err := domain.ParseDate(strings.TrimSpace(field(colDebtDueDate)))
	if err != nil {
		return nil, fail(colDebtDueDate, fmt.Errorf("expected YYYY-MM-DD: %w", err))
	}

	return &domain.Debt{
		ID:           id,
		Name:         field(colName),
		GovernmentID: field(colGovernmentID),
		Email:        field(colEmail),
		Amount:       amount,
		DueDate:      dueDate,
		Status:       domain.StatusPending,
	}, nil
}
