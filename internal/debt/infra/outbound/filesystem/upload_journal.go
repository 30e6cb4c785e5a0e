package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/davicafu/boletolab/internal/debt/domain"
)

// JSONUploadJournal guarda el histórico de uploads en un fichero JSON.
type JSONUploadJournal struct {
	filePath string
	mu       sync.Mutex // serializa lectura y reescritura del fichero
}

var _ domain.UploadJournal = (*JSONUploadJournal)(nil)

func NewJSONUploadJournal(filePath string) *JSONUploadJournal {
	return &JSONUploadJournal{filePath: filePath}
}

// Record añade un upload al final del fichero. Si no existe, lo crea.
func (j *JSONUploadJournal) Record(ctx context.Context, rec *domain.UploadRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	records, err := j.readAll()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	// Escritura atómica: fichero temporal + rename.
	tmp := j.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, j.filePath)
}

// List devuelve los uploads en orden de llegada.
func (j *JSONUploadJournal) List(ctx context.Context) ([]*domain.UploadRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.readAll()
}

func (j *JSONUploadJournal) readAll() ([]*domain.UploadRecord, error) {
	data, err := os.ReadFile(j.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*domain.UploadRecord{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []*domain.UploadRecord{}, nil
	}

	var records []*domain.UploadRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
