package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodhub/catalog-api/internal/store"
	"prodhub/catalog-api/internal/worker"
	"prodhub/catalog-api/models"
)

// memoryLedger is an in-memory stand-in for store.JobStore.
type memoryLedger struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.UploadJob
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{jobs: map[uuid.UUID]*models.UploadJob{}}
}

func (m *memoryLedger) CreateJob() (*models.UploadJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &models.UploadJob{JobID: uuid.New(), Status: models.JobStatusPending, CreatedAt: time.Now()}
	m.jobs[job.JobID] = job
	out := *job
	return &out, nil
}

func (m *memoryLedger) GetJob(jobID uuid.UUID) (*models.UploadJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	out := *job
	return &out, nil
}

func (m *memoryLedger) MarkProcessing(jobID uuid.UUID) error {
	return m.set(jobID, func(j *models.UploadJob) { j.Status = models.JobStatusProcessing })
}

func (m *memoryLedger) Complete(jobID uuid.UUID, progress string) error {
	return m.set(jobID, func(j *models.UploadJob) {
		j.Status = models.JobStatusCompleted
		j.Progress = progress
		j.Error = ""
	})
}

func (m *memoryLedger) Fail(jobID uuid.UUID, message string) error {
	return m.set(jobID, func(j *models.UploadJob) {
		j.Status = models.JobStatusFailed
		j.Error = message
	})
}

func (m *memoryLedger) set(jobID uuid.UUID, mutate func(*models.UploadJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return store.ErrJobNotFound
	}
	mutate(job)
	return nil
}

// memoryProducts is an in-memory stand-in for store.ProductStore.
type memoryProducts struct {
	mu       sync.Mutex
	upserted []models.Product
	deletes  int
}

func (m *memoryProducts) UpsertBatch(products []models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, products...)
	return nil
}

func (m *memoryProducts) DeleteAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	return nil
}

// captureDispatcher records submitted jobs instead of running them, so
// tests control exactly when background work happens.
type captureDispatcher struct {
	jobs      []worker.Job
	submitErr error
}

func (d *captureDispatcher) Submit(job worker.Job) error {
	if d.submitErr != nil {
		return d.submitErr
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(ledger JobLedger, products ProductWriter, dispatcher TaskDispatcher) *fiber.App {
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := NewApplicationHandler(log, nil, ledger, products, dispatcher)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/products/upload", h.UploadProducts)
	api.Post("/products/bulk_delete", h.BulkDeleteProducts)
	api.Get("/jobs/:jobId", h.GetJobStatus)
	return app
}

func uploadRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestUploadProductsRejectsMissingFile(t *testing.T) {
	ledger := newMemoryLedger()
	app := newTestApp(ledger, &memoryProducts{}, &captureDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/upload", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, ledger.jobs, "no job may be created for a rejected upload")
}

func TestUploadProductsRejectsNonUTF8File(t *testing.T) {
	ledger := newMemoryLedger()
	dispatcher := &captureDispatcher{}
	app := newTestApp(ledger, &memoryProducts{}, dispatcher)

	resp, err := app.Test(uploadRequest(t, []byte{0xff, 0xfe, 0xfd}))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decodeResponse(t, resp)
	assert.Equal(t, "File is not UTF-8 encoded.", body.Message)
	assert.Empty(t, ledger.jobs)
	assert.Empty(t, dispatcher.jobs)
}

func TestUploadProductsAcceptsCSVAndReturnsJobID(t *testing.T) {
	ledger := newMemoryLedger()
	dispatcher := &captureDispatcher{}
	app := newTestApp(ledger, &memoryProducts{}, dispatcher)

	resp, err := app.Test(uploadRequest(t, []byte("sku,name\nSKU-1,Bolt\n")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	body := decodeResponse(t, resp)
	var data struct {
		JobID uuid.UUID `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))

	// PENDING is observable before any worker touches the job.
	job, err := ledger.GetJob(data.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)

	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, data.JobID.String(), dispatcher.jobs[0].ID())
}

func TestUploadProductsFailsJobWhenQueueIsFull(t *testing.T) {
	ledger := newMemoryLedger()
	dispatcher := &captureDispatcher{submitErr: worker.ErrQueueFull}
	app := newTestApp(ledger, &memoryProducts{}, dispatcher)

	resp, err := app.Test(uploadRequest(t, []byte("sku\nSKU-1\n")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	require.Len(t, ledger.jobs, 1)
	for _, job := range ledger.jobs {
		assert.Equal(t, models.JobStatusFailed, job.Status)
		assert.NotEmpty(t, job.Error)
	}
}

func TestUploadThenProcessRoundTrip(t *testing.T) {
	ledger := newMemoryLedger()
	products := &memoryProducts{}
	dispatcher := &captureDispatcher{}
	app := newTestApp(ledger, products, dispatcher)

	content := "sku,name,description\nsku-1,Bolt,Steel bolt\n,Ignored,Row\nSKU-2,Nut,\n"
	resp, err := app.Test(uploadRequest(t, []byte(content)))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	body := decodeResponse(t, resp)
	var data struct {
		JobID uuid.UUID `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))

	// Run the queued job the way a worker would.
	require.Len(t, dispatcher.jobs, 1)
	require.NoError(t, dispatcher.jobs[0].Execute())

	statusReq := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+data.JobID.String(), nil)
	statusResp, err := app.Test(statusReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, statusResp.StatusCode)

	var job models.UploadJob
	statusBody := decodeResponse(t, statusResp)
	require.NoError(t, json.Unmarshal(statusBody.Data, &job))
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, "Successfully imported 2 products.", job.Progress)
	assert.Empty(t, job.Error)

	require.Len(t, products.upserted, 2)
	assert.Equal(t, "SKU-1", products.upserted[0].SKU)
	assert.Equal(t, "SKU-2", products.upserted[1].SKU)
}

func TestBulkDeleteProductsQueuesPurge(t *testing.T) {
	products := &memoryProducts{}
	dispatcher := &captureDispatcher{}
	app := newTestApp(newMemoryLedger(), products, dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/bulk_delete", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	require.Len(t, dispatcher.jobs, 1)
	require.NoError(t, dispatcher.jobs[0].Execute())
	assert.Equal(t, 1, products.deletes)
}
