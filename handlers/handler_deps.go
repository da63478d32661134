package handlers

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"prodhub/catalog-api/internal/jobs"
	"prodhub/catalog-api/internal/worker"
	"prodhub/catalog-api/models"
)

// JobLedger defines the operations handlers expect from the upload job
// store. It embeds jobs.Ledger because the upload intake wires the ledger
// into the background job it submits. This allows for decoupling and easier
// testing; the concrete implementation is store.JobStore.
type JobLedger interface {
	CreateJob() (*models.UploadJob, error)
	GetJob(jobID uuid.UUID) (*models.UploadJob, error)
	jobs.Ledger
}

// ProductWriter is the write surface of the product store that background
// jobs run against.
type ProductWriter interface {
	jobs.ProductUpserter
	jobs.ProductPurger
}

// TaskDispatcher accepts work for out-of-band execution and acknowledges
// immediately.
type TaskDispatcher interface {
	Submit(job worker.Job) error
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger     *logrus.Logger
	DB         *supa.Client
	Ledger     JobLedger
	Products   ProductWriter
	Dispatcher TaskDispatcher
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(logger *logrus.Logger, db *supa.Client, ledger JobLedger, products ProductWriter, dispatcher TaskDispatcher) *ApplicationHandler {
	return &ApplicationHandler{
		Logger:     logger,
		DB:         db,
		Ledger:     ledger,
		Products:   products,
		Dispatcher: dispatcher,
	}
}
