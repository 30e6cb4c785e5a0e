package boleto

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

// Generator implementa domain.BoletoGenerator. No tiene estado mutable, así
// que puede usarse desde muchos workers a la vez.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Now().UTC() }}
}

// NewGeneratorWithClock permite fijar el reloj en tests.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Generate compone el código de barras a partir de id, importe y vencimiento.
// El ID del boleto deriva del código de barras.
func (g *Generator) Generate(ctx context.Context, d *domain.Debt) (*domain.Boleto, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: debt", domain.ErrMissingField)
	}
	if d.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: debtId", domain.ErrMissingField)
	}
	if d.Email == "" {
		return nil, fmt.Errorf("%w: email", domain.ErrMissingField)
	}
	if d.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: debtDueDate", domain.ErrMissingField)
	}
	if d.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: debtAmount %s is negative", domain.ErrInvalidValue, d.Amount.String())
	}

	barcode := Barcode(d)
	return &domain.Boleto{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(barcode)),
		Barcode:     barcode,
		GeneratedAt: g.now(),
	}, nil
}

// Barcode: <10 primeros caracteres del id>-<importe con 2 decimales>-<YYYY-MM-DD>
func Barcode(d *domain.Debt) string {
	return fmt.Sprintf("%s-%s-%s", d.ID.String()[:10], d.FormattedAmount(), d.FormattedDueDate())
}

var _ domain.BoletoGenerator = (*Generator)(nil)
