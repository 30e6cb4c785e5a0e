package domain

import (
	"time"

	"github.com/google/uuid"
)

// Boleto es el artefacto efímero generado por cada deuda. No se persiste.
type Boleto struct {
	ID          uuid.UUID `json:"boletoId"`
	Barcode     string    `json:"barcode"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// BoletoIssued es el mensaje que viaja por el bus hacia el envío de emails.
type BoletoIssued struct {
	DebtID      uuid.UUID `json:"debtId"`
	Email       string    `json:"email"`
	BoletoID    uuid.UUID `json:"boletoId"`
	Barcode     string    `json:"barcode"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func (e *BoletoIssued) PartitionKey() string {
	return e.DebtID.String()
}

const NotificationTopic = "boleto-issued"
