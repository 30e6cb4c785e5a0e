package http

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

// debtResponse fija el formato de salida: importe con dos decimales y fecha
// YYYY-MM-DD.
type debtResponse struct {
	DebtID       string `json:"debtId"`
	Name         string `json:"name"`
	GovernmentID string `json:"governmentId"`
	Email        string `json:"email"`
	DebtAmount   string `json:"debtAmount"`
	DebtDueDate  string `json:"debtDueDate"`
	Status       string `json:"status"`
}

func toDebtResponse(d *domain.Debt) debtResponse {
	return debtResponse{
		DebtID:       d.ID.String(),
		Name:         d.Name,
		GovernmentID: d.GovernmentID,
		Email:        d.Email,
		DebtAmount:   d.FormattedAmount(),
		DebtDueDate:  d.FormattedDueDate(),
		Status:       string(d.Status),
	}
}

func toDebtResponses(debts []*domain.Debt) []debtResponse {
	out := make([]debtResponse, 0, len(debts))
	for _, d := range debts {
		out = append(out, toDebtResponse(d))
	}
	return out
}

// updateDebtRequest usa punteros para que los campos sean opcionales en el JSON.
type updateDebtRequest struct {
	Name         *string          `json:"name,omitempty"`
	GovernmentID *string          `json:"government_id,omitempty"`
	Email        *string          `json:"email,omitempty"`
	DebtAmount   *decimal.Decimal `json:"debt_amount,omitempty"`
	DebtDueDate  *string          `json:"debt_due_date,omitempty"`
	Status       *string          `json:"status,omitempty"`
}

func (r updateDebtRequest) toUpdate() (domain.DebtUpdate, error) {
	var upd domain.DebtUpdate
	if r.Name != nil {
		upd.Name = domain.Some(*r.Name)
	}
	if r.GovernmentID != nil {
		upd.GovernmentID = domain.Some(*r.GovernmentID)
	}
	if r.Email != nil {
		upd.Email = domain.Some(*r.Email)
	}
	if r.DebtAmount != nil {
		upd.Amount = domain.Some(*r.DebtAmount)
	}
	if r.DebtDueDate != nil {
		due, err := domain.ParseDate(strings.TrimSpace(*r.DebtDueDate))
		if err != nil {
			return upd, fmt.Errorf("%w: debt_due_date must be YYYY-MM-DD", domain.ErrInvalidDebt)
		}
		upd.DueDate = domain.Some(due)
	}
	if r.Status != nil {
		status, err := domain.ParseStatus(strings.ToUpper(strings.TrimSpace(*r.Status)))
		if err != nil {
			return upd, err
		}
		upd.Status = domain.Some(status)
	}
	return upd, nil
}
