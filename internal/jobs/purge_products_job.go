package jobs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProductPurger empties the product store.
type ProductPurger interface {
	DeleteAll() error
}

// PurgeProductsJob deletes every product in the background. There is no job
// record for a purge; the outcome only surfaces in worker-pool logging.
type PurgeProductsJob struct {
	TaskID string
	Store  ProductPurger
	Log    *logrus.Logger
}

func NewPurgeProductsJob(store ProductPurger, log *logrus.Logger) *PurgeProductsJob {
	return &PurgeProductsJob{
		TaskID: uuid.NewString(),
		Store:  store,
		Log:    log,
	}
}

// ID returns the task identifier used in dispatcher logs.
func (j *PurgeProductsJob) ID() string {
	return j.TaskID
}

// Execute removes all products. A store error is wrapped into a descriptive
// outcome for the pool's log line; the pool never retries.
func (j *PurgeProductsJob) Execute() error {
	if err := j.Store.DeleteAll(); err != nil {
		return fmt.Errorf("bulk delete failed: %w", err)
	}
	j.Log.WithField("job_id", j.TaskID).Info("Successfully deleted all products")
	return nil
}
