package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/debt/domain"
	sharedCache "github.com/davicafu/boletolab/internal/shared/infra/platform/cache"
	"github.com/davicafu/boletolab/pkg/checksum"
)

// IngestReport es lo que recibe quien sube un CSV.
type IngestReport struct {
	LoadReport
	Checksum string `json:"checksum"`
}

// DebtService define los casos de uso relacionados con Debt.
type DebtService struct {
	repo    domain.DebtRepository
	loader  *BulkLoader
	cache   sharedCache.Cache
	journal domain.UploadJournal
	log     *zap.Logger

	// cacheMu ordena escrituras e invalidaciones de caché; invalidations
	// permite descartar un Set basado en una lectura anterior a un cambio.
	cacheMu       sync.Mutex
	invalidations uint64
}

func NewDebtService(repo domain.DebtRepository, loader *BulkLoader, cache sharedCache.Cache, log *zap.Logger) *DebtService {
	return &DebtService{
		repo:   repo,
		loader: loader,
		cache:  cache,
		log:    log,
	}
}

// WithJournal activa el registro de uploads aceptados.
func (s *DebtService) WithJournal(j domain.UploadJournal) *DebtService {
	s.journal = j
	return s
}

// Ingest parsea y persiste el CSV completo. No dispara el procesamiento:
// eso es responsabilidad de quien llama, una vez que Ingest devolvió nil.
func (s *DebtService) Ingest(ctx context.Context, content []byte) (IngestReport, error) {
	report := IngestReport{Checksum: checksum.Sum(content)}
	log := s.log.With(zap.String("checksum", report.Checksum))

	debts, err := ParseCSV(content)
	if err != nil {
		log.Warn("Rejected CSV upload", zap.Error(err))
		return report, err
	}
	log.Info("Saving debts to the database...", zap.Int("rows", len(debts)))

	loaded, err := s.loader.Load(ctx, debts)
	report.LoadReport = loaded
	if err != nil {
		return report, err
	}

	log.Info("✅ Debts saved",
		zap.Int("rows", loaded.Attempted),
		zap.Int64("inserted", loaded.Inserted),
		zap.Int64("ignored", int64(loaded.Attempted)-loaded.Inserted),
	)

	if s.journal != nil {
		rec := &domain.UploadRecord{
			Checksum:   report.Checksum,
			Rows:       loaded.Attempted,
			Inserted:   loaded.Inserted,
			UploadedAt: time.Now().UTC(),
		}
		// Los datos ya están persistidos: un fallo del registro no invalida el upload.
		if err := s.journal.Record(ctx, rec); err != nil {
			log.Warn("⚠️ Could not record upload", zap.Error(err))
		}
	}
	return report, nil
}

// ListUploads devuelve el histórico de uploads, vacío si no hay registro.
func (s *DebtService) ListUploads(ctx context.Context) ([]*domain.UploadRecord, error) {
	if s.journal == nil {
		return []*domain.UploadRecord{}, nil
	}
	return s.journal.List(ctx)
}

// ListDebts devuelve las deudas que cumplen todos los filtros.
func (s *DebtService) ListDebts(ctx context.Context, f domain.DebtFilter) ([]*domain.Debt, error) {
	debts, err := s.repo.ListByCriteria(ctx, f.Criteria())
	if err != nil {
		return nil, domain.NewStoreError("list debts", err)
	}
	return debts, nil
}

// GetDebt usa cache-aside. Solo se cachean deudas en estado final: las
// PENDING cambian en segundo plano sin pasar por este servicio.
func (s *DebtService) GetDebt(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	key := domain.DebtCacheKeyByID(id)
	if s.cache != nil {
		var d domain.Debt
		if hit, _ := s.cache.Get(ctx, key, &d); hit {
			return &d, nil
		}
	}

	s.cacheMu.Lock()
	generation := s.invalidations
	s.cacheMu.Unlock()

	debt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDebtNotFound) {
			return nil, err
		}
		s.log.Error("Failed to fetch debt", zap.String("debt_id", id.String()), zap.Error(err))
		return nil, domain.NewStoreError("get debt", err)
	}

	if debt.Status.Terminal() {
		s.cacheTerminal(key, debt, generation)
	}
	return debt, nil
}

// cacheTerminal guarda la deuda salvo que haya habido una invalidación desde
// que se leyó. El TTL es el configurado en la caché.
func (s *DebtService) cacheTerminal(key string, debt *domain.Debt, generation uint64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.invalidations != generation {
		s.log.Debug("Skipping cache set after concurrent write", zap.String("key", key))
		return
	}
	sharedCache.SetWithTimeout(s.cache, key, debt, 0, s.log)
}

func (s *DebtService) invalidate(ctx context.Context, id uuid.UUID) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.invalidations++
	sharedCache.InvalidateSync(ctx, s.cache, domain.DebtCacheKeyByID(id), s.log)
}

// UpdateDebt aplica una actualización parcial. Un payload vacío se rechaza
// sin tocar el almacenamiento.
func (s *DebtService) UpdateDebt(ctx context.Context, id uuid.UUID, upd domain.DebtUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, upd); err != nil {
		if errors.Is(err, domain.ErrDebtNotFound) {
			return err
		}
		return domain.NewStoreError("update debt", err)
	}

	s.invalidate(ctx, id)
	s.log.Info("Debt updated", zap.String("debt_id", id.String()))
	return nil
}

func (s *DebtService) DeleteDebt(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrDebtNotFound) {
			return err
		}
		return domain.NewStoreError("delete debt", err)
	}

	s.invalidate(ctx, id)
	s.log.Info("Debt deleted", zap.String("debt_id", id.String()))
	return nil
}
