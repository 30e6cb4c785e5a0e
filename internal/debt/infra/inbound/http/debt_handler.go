package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/debt/application"
	"github.com/davicafu/boletolab/internal/debt/domain"
	"github.com/davicafu/boletolab/pkg/utils"
)

// maxUploadBytes limita el tamaño del multipart que se lee en memoria.
const maxUploadBytes = 512 << 20

// ProcessingTrigger encola una ejecución de procesamiento sin bloquear.
type ProcessingTrigger interface {
	Trigger() bool
}

// DebtHandler encapsula los endpoints HTTP relacionados con Debt.
type DebtHandler struct {
	service *application.DebtService
	trigger ProcessingTrigger
	log     *zap.Logger
}

func NewDebtHandler(service *application.DebtService, trigger ProcessingTrigger, log *zap.Logger) *DebtHandler {
	return &DebtHandler{service: service, trigger: trigger, log: log}
}

// UploadCSV endpoint POST /upload-csv
//
// El procesamiento solo se dispara después de que todas las filas se
// hayan persistido.
func (h *DebtHandler) UploadCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.SendBadRequest(c, "missing multipart field 'file'")
		return
	}
	if !strings.HasSuffix(fileHeader.Filename, ".csv") {
		utils.SendBadRequest(c, "Invalid file type. Please upload a CSV file.")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.SendBadRequest(c, "could not open uploaded file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		utils.SendBadRequest(c, "could not read uploaded file")
		return
	}
	if len(content) > maxUploadBytes {
		utils.SendError(c, http.StatusRequestEntityTooLarge, "uploaded file is too large")
		return
	}

	report, err := h.service.Ingest(c.Request.Context(), content)
	if err != nil {
		var perr *domain.ParseError
		if errors.As(err, &perr) {
			utils.SendErrorWithDetails(c, http.StatusBadRequest, perr.Error(), map[string]interface{}{
				"line":  perr.Line,
				"field": perr.Field,
			})
			return
		}
		h.log.Error("❌ CSV ingestion failed", zap.String("file", fileHeader.Filename), zap.Error(err))
		utils.SendInternalServerError(c, "could not store uploaded debts")
		return
	}

	queued := h.trigger.Trigger()
	h.log.Info("📄 CSV uploaded",
		zap.String("file", fileHeader.Filename),
		zap.Int("rows", report.Attempted),
		zap.Bool("run_queued", queued),
	)

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "File uploaded successfully. Processing started.",
		"rows":     report.Attempted,
		"inserted": report.Inserted,
		"chunks":   report.Chunks,
		"checksum": report.Checksum,
	})
}

// ListDebts endpoint GET /debts con filtros opcionales.
func (h *DebtHandler) ListDebts(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	debts, err := h.service.ListDebts(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("❌ Listing debts failed", zap.Error(err))
		utils.SendInternalServerError(c, "could not list debts")
		return
	}

	utils.SendSuccess(c, http.StatusOK, toDebtResponses(debts))
}

// GetDebt endpoint GET /debts/:id
func (h *DebtHandler) GetDebt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	debt, err := h.service.GetDebt(c.Request.Context(), id)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, toDebtResponse(debt))
}

// UpdateDebt endpoint PUT /debts/:id
func (h *DebtHandler) UpdateDebt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	upd, err := req.toUpdate()
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	if err := h.service.UpdateDebt(c.Request.Context(), id, upd); err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Debt updated successfully"})
}

// DeleteDebt endpoint DELETE /debts/:id
func (h *DebtHandler) DeleteDebt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteDebt(c.Request.Context(), id); err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUploads endpoint GET /uploads
func (h *DebtHandler) ListUploads(c *gin.Context) {
	uploads, err := h.service.ListUploads(c.Request.Context())
	if err != nil {
		h.log.Error("❌ Listing uploads failed", zap.Error(err))
		utils.SendInternalServerError(c, "could not list uploads")
		return
	}
	utils.SendSuccess(c, http.StatusOK, uploads)
}

// TriggerProcessing endpoint POST /debts/process
func (h *DebtHandler) TriggerProcessing(c *gin.Context) {
	queued := h.trigger.Trigger()
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Processing run requested",
		"queued":  queued,
	})
}

func (h *DebtHandler) sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDebtNotFound):
		utils.SendNotFound(c, "Debt not found")
	case errors.Is(err, domain.ErrEmptyUpdate), errors.Is(err, domain.ErrInvalidDebt):
		utils.SendBadRequest(c, err.Error())
	default:
		h.log.Error("❌ Debt operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.SendInternalServerError(c, "internal error")
	}
}

// --- Helpers ---

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid debt id")
		return uuid.Nil, false
	}
	return id, true
}

func parseFilter(c *gin.Context) (domain.DebtFilter, error) {
	f := domain.DebtFilter{
		IDContains:    c.Query("debt_id"),
		NameContains:  c.Query("name"),
		EmailContains: c.Query("email"),
		GovernmentID:  c.Query("government_id"),
	}

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(strings.ToUpper(raw))
		if err != nil {
			return f, err
		}
		f.Status = &status
	}

	var err error
	if f.MinAmount, err = optionalDecimal(c, "min_amount"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = optionalDecimal(c, "max_amount"); err != nil {
		return f, err
	}
	return f, nil
}

func optionalDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	return &v, nil
}
