package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

func newPendingDebts(n int) []*domain.Debt {
	debts := make([]*domain.Debt, n)
	for i := range debts {
		debts[i] = &domain.Debt{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("Debtor %d", i),
			GovernmentID: fmt.Sprintf("%011d", i),
			Email:        fmt.Sprintf("debtor%d@example.com", i),
			Amount:       decimal.NewFromInt(int64(100 + i)),
			DueDate:      time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
			Status:       domain.StatusPending,
		}
	}
	return debts
}

// fixedGenerator siempre genera un boleto válido.
type fixedGenerator struct{}

func (fixedGenerator) Generate(ctx context.Context, d *domain.Debt) (*domain.Boleto, error) {
	return &domain.Boleto{ID: uuid.New(), Barcode: d.ID.String()[:10], GeneratedAt: time.Now().UTC()}, nil
}
