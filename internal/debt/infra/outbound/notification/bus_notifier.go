package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/debt/domain"
	sharedBus "github.com/davicafu/boletolab/internal/shared/infra/platform/bus"
)

// BusNotifier entrega el boleto publicando un BoletoIssued en el bus
// (Kafka o en memoria). El envío real del email lo hace el consumidor.
type BusNotifier struct {
	bus sharedBus.EventBus
	log *zap.Logger
}

func NewBusNotifier(bus sharedBus.EventBus, log *zap.Logger) *BusNotifier {
	return &BusNotifier{bus: bus, log: log}
}

func (n *BusNotifier) Notify(ctx context.Context, email string, debtID uuid.UUID, b *domain.Boleto) error {
	if email == "" {
		return fmt.Errorf("%w: empty recipient for debt %s", domain.ErrNotification, debtID)
	}
	if b == nil {
		return fmt.Errorf("%w: no boleto for debt %s", domain.ErrNotification, debtID)
	}

	evt := &domain.BoletoIssued{
		DebtID:      debtID,
		Email:       email,
		BoletoID:    b.ID,
		Barcode:     b.Barcode,
		GeneratedAt: b.GeneratedAt,
	}
	if err := n.bus.Publish(ctx, evt); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotification, err)
	}

	n.log.Debug("Boleto notification published",
		zap.String("debt_id", debtID.String()),
		zap.String("boleto_id", b.ID.String()),
	)
	return nil
}

var _ domain.Notifier = (*BusNotifier)(nil)
