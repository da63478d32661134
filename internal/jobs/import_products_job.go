// Package jobs holds the background work executed by the worker pool.
package jobs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"prodhub/catalog-api/internal/importer"
	"prodhub/catalog-api/models"
)

// upsertBatchSize bounds how many rows go to the store in one upsert call,
// keeping peak transaction size independent of the uploaded file size.
const upsertBatchSize = 5000

// Ledger is the slice of the job store the import job drives. The job is
// the only writer of its own record.
type Ledger interface {
	MarkProcessing(jobID uuid.UUID) error
	Complete(jobID uuid.UUID, progress string) error
	Fail(jobID uuid.UUID, message string) error
}

// ProductUpserter accepts one bounded batch of products per call.
type ProductUpserter interface {
	UpsertBatch(products []models.Product) error
}

// ImportProductsJob parses uploaded CSV content and upserts the resulting
// products, recording the outcome on its upload job record. It runs on a
// worker an arbitrary time after the upload request returned.
type ImportProductsJob struct {
	JobID   uuid.UUID
	Content string
	Ledger  Ledger
	Store   ProductUpserter
	Log     *logrus.Logger

	// BatchSize overrides upsertBatchSize when positive.
	BatchSize int
}

// NewImportProductsJob creates an import job for an already-created upload
// job record in PENDING state.
func NewImportProductsJob(jobID uuid.UUID, content string, ledger Ledger, store ProductUpserter, log *logrus.Logger) *ImportProductsJob {
	return &ImportProductsJob{
		JobID:   jobID,
		Content: content,
		Ledger:  ledger,
		Store:   store,
		Log:     log,
	}
}

// ID returns the upload job identifier.
func (j *ImportProductsJob) ID() string {
	return j.JobID.String()
}

// Execute runs the import and always records a terminal state on the job
// record. It never returns an error to the worker pool: a failed import is
// a FAILED job, not a failed task, so pool-level logging can never feed a
// retry loop.
func (j *ImportProductsJob) Execute() error {
	entry := j.Log.WithField("job_id", j.JobID.String())

	if err := j.Ledger.MarkProcessing(j.JobID); err != nil {
		entry.WithField("error", err.Error()).Error("Could not transition job to PROCESSING")
		if ferr := j.Ledger.Fail(j.JobID, fmt.Sprintf("could not start processing: %v", err)); ferr != nil {
			entry.WithField("error", ferr.Error()).Error("Could not record job failure")
		}
		return nil
	}

	count, err := j.run()

	// The ledger update happens on every path out of run, success or not.
	if err != nil {
		entry.WithField("error", err.Error()).Error("Import failed")
		if ferr := j.Ledger.Fail(j.JobID, err.Error()); ferr != nil {
			entry.WithField("error", ferr.Error()).Error("Could not record job failure")
		}
		return nil
	}

	progress := fmt.Sprintf("Successfully imported %d products.", count)
	if cerr := j.Ledger.Complete(j.JobID, progress); cerr != nil {
		entry.WithField("error", cerr.Error()).Error("Could not record job completion")
		return nil
	}
	entry.WithField("count", count).Info("Import completed")
	return nil
}

// run parses the content and upserts it in sub-batches, returning the
// number of products upserted. Sub-batches commit independently: batches
// written before a failure stay applied.
func (j *ImportProductsJob) run() (int, error) {
	products, err := importer.ParseProducts(j.Content)
	if err != nil {
		return 0, err
	}

	batchSize := j.BatchSize
	if batchSize <= 0 {
		batchSize = upsertBatchSize
	}

	for start := 0; start < len(products); start += batchSize {
		end := start + batchSize
		if end > len(products) {
			end = len(products)
		}
		if err := j.Store.UpsertBatch(products[start:end]); err != nil {
			return 0, err
		}
	}

	return len(products), nil
}
