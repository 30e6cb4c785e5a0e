package domain

import (
	"context"
	"time"
)

// UploadRecord deja constancia de un CSV aceptado.
type UploadRecord struct {
	Checksum   string    `json:"checksum"`
	Rows       int       `json:"rows"`
	Inserted   int64     `json:"inserted"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadJournal guarda el histórico de uploads aceptados.
type UploadJournal interface {
	Record(ctx context.Context, rec *UploadRecord) error
	List(ctx context.Context) ([]*UploadRecord, error)
}
