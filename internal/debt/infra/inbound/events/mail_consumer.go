package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/debt/domain"
	sharedUtils "github.com/davicafu/boletolab/internal/shared/infra/utils"
)

// Mailer envía el email con el boleto.
type Mailer interface {
	Send(ctx context.Context, msg domain.BoletoIssued) error
}

// LogMailer simula el envío registrando el email.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg domain.BoletoIssued) error {
	m.log.Info("📧 Sending email",
		zap.String("to", msg.Email),
		zap.String("debt_id", msg.DebtID.String()),
		zap.String("barcode", msg.Barcode),
	)
	return nil
}

// MailConsumer consume mensajes BoletoIssued y los entrega al Mailer.
type MailConsumer struct {
	mailer  Mailer
	timeout time.Duration
	log     *zap.Logger
}

func NewMailConsumer(mailer Mailer, log *zap.Logger) *MailConsumer {
	return &MailConsumer{
		mailer:  mailer,
		timeout: 5 * time.Second,
		log:     log,
	}
}

func (c *MailConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	sharedUtils.UnmarshalAndHandle(c.log, payload, func(msg domain.BoletoIssued) {
		sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		if err := c.mailer.Send(sendCtx, msg); err != nil {
			c.log.Warn("Failed to send boleto email",
				zap.String("debt_id", msg.DebtID.String()),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	})
}
