package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/boletolab/internal/debt/application"
	"github.com/davicafu/boletolab/internal/debt/domain"
	"github.com/davicafu/boletolab/tests/mocks"
)

const johnDoeID = "1adb6ccf-ff16-467f-bea7-5f05d494280f"

const johnDoeCSV = "name,governmentId,email,debtAmount,debtDueDate,debtId\n" +
	"John Doe,11111111111,john@x.com,1000.00,2022-10-12," + johnDoeID + "\n"

type countingTrigger struct {
	calls atomic.Int32
}

func (t *countingTrigger) Trigger() bool {
	t.calls.Add(1)
	return true
}

type errorBody struct {
	Error struct {
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *mocks.InMemoryDebtRepo, *countingTrigger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	repo := mocks.NewInMemoryDebtRepo()
	service := application.NewDebtService(repo, application.NewBulkLoader(repo, 100, log), mocks.NewDummyCache(), log)
	trigger := &countingTrigger{}

	r := gin.New()
	RegisterDebtRoutes(r, NewDebtHandler(service, trigger, log))
	return r, repo, trigger
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-csv", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func seedJohnDoe(repo *mocks.InMemoryDebtRepo, status domain.Status) uuid.UUID {
	id := uuid.MustParse(johnDoeID)
	repo.Seed(&domain.Debt{
		ID:           id,
		Name:         "John Doe",
		GovernmentID: "11111111111",
		Email:        "john@x.com",
		Amount:       decimal.RequireFromString("1000.00"),
		DueDate:      time.Date(2022, 10, 12, 0, 0, 0, 0, time.UTC),
		Status:       status,
	})
	return id
}

func TestUploadCSV_AcceptsAndTriggersProcessing(t *testing.T) {
	r, repo, trigger := setupRouter(t)

	rec := serve(r, uploadRequest(t, "debts.csv", johnDoeCSV))

	require.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "File uploaded successfully. Processing started.", body["message"])
	assert.EqualValues(t, 1, body["rows"])
	assert.EqualValues(t, 1, body["inserted"])
	assert.NotEmpty(t, body["checksum"])

	assert.Equal(t, int32(1), trigger.calls.Load())
	assert.Equal(t, domain.StatusPending, repo.StatusOf(uuid.MustParse(johnDoeID)))
}

func TestUploadCSV_RejectsNonCSVFile(t *testing.T) {
	for _, name := range []string{"debts.txt", "DEBTS.CSV", "debts.csv.bak"} {
		t.Run(name, func(t *testing.T) {
			r, repo, trigger := setupRouter(t)

			rec := serve(r, uploadRequest(t, name, johnDoeCSV))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Invalid file type. Please upload a CSV file.", body.Error.Message)
			assert.Equal(t, 0, repo.Count())
			assert.Equal(t, int32(0), trigger.calls.Load())
		})
	}
}

func TestUploadCSV_MissingFileField(t *testing.T) {
	r, _, trigger := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/upload-csv", strings.NewReader(""))
	rec := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(0), trigger.calls.Load())
}

func TestUploadCSV_MalformedRowReportsLineAndField(t *testing.T) {
	r, repo, trigger := setupRouter(t)

	content := johnDoeCSV + "Jane Doe,222,jane@x.com,abc,2022-10-12," + uuid.NewString() + "\n"
	rec := serve(r, uploadRequest(t, "debts.csv", content))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body.Error.Details["line"])
	assert.Equal(t, "debtAmount", body.Error.Details["field"])

	assert.Equal(t, 0, repo.Count())
	assert.Equal(t, int32(0), trigger.calls.Load())
}

func TestUploadCSV_StoreFailureIsInternalError(t *testing.T) {
	r, repo, trigger := setupRouter(t)
	repo.InsertErr = assert.AnError

	rec := serve(r, uploadRequest(t, "debts.csv", johnDoeCSV))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int32(0), trigger.calls.Load())
}

func TestListDebts_FiltersByStatus(t *testing.T) {
	r, repo, _ := setupRouter(t)
	seedJohnDoe(repo, domain.StatusProcessed)
	repo.Seed(&domain.Debt{
		ID:      uuid.New(),
		Name:    "Jane Doe",
		Email:   "jane@x.com",
		Amount:  decimal.NewFromInt(50),
		DueDate: time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC),
		Status:  domain.StatusPending,
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/debts?status=processed", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []debtResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, johnDoeID, body.Data[0].DebtID)
	assert.Equal(t, "1000.00", body.Data[0].DebtAmount)
	assert.Equal(t, "2022-10-12", body.Data[0].DebtDueDate)
	assert.Equal(t, "PROCESSED", body.Data[0].Status)
}

func TestListDebts_InvalidFilter(t *testing.T) {
	r, _, _ := setupRouter(t)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/debts?status=DONE", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/debts?min_amount=lots", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDebt(t *testing.T) {
	r, repo, _ := setupRouter(t)
	id := seedJohnDoe(repo, domain.StatusPending)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/debts/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data debtResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "John Doe", body.Data.Name)
	assert.Equal(t, "PENDING", body.Data.Status)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/debts/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/debts/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateDebt(t *testing.T) {
	r, repo, _ := setupRouter(t)
	id := seedJohnDoe(repo, domain.StatusFailed)

	put := func(target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return serve(r, req)
	}

	t.Run("empty payload", func(t *testing.T) {
		rec := put("/debts/"+id.String(), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := put("/debts/"+id.String(), `{"debt_due_date":"12/10/2022"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := put("/debts/"+uuid.NewString(), `{"name":"Nobody"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("operator reset", func(t *testing.T) {
		rec := put("/debts/"+id.String(), `{"status":"pending","debt_due_date":"2022-12-01"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		d, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, d.Status)
		assert.Equal(t, "2022-12-01", d.FormattedDueDate())
	})
}

func TestDeleteDebt(t *testing.T) {
	r, repo, _ := setupRouter(t)
	id := seedJohnDoe(repo, domain.StatusProcessed)

	rec := serve(r, httptest.NewRequest(http.MethodDelete, "/debts/"+id.String(), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, repo.Count())

	rec = serve(r, httptest.NewRequest(http.MethodDelete, "/debts/"+id.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerProcessingAndHealth(t *testing.T) {
	r, _, trigger := setupRouter(t)

	rec := serve(r, httptest.NewRequest(http.MethodPost, "/debts/process", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, int32(1), trigger.calls.Load())

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListUploads_EmptyWithoutJournal(t *testing.T) {
	r, _, _ := setupRouter(t)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/uploads", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
