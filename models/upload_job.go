package models

import (
	"time"

	"github.com/google/uuid"
)

// Job status values. Transitions are monotonic:
// PENDING -> PROCESSING -> COMPLETED | FAILED.
const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// UploadJob represents the structure of a CSV upload job in the database.
// Progress and Error are free-form, human-readable strings; Error is only
// populated when the job is FAILED.
type UploadJob struct {
	JobID     uuid.UUID `json:"job_id"`
	Status    string    `json:"status"`
	Progress  string    `json:"progress"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *UploadJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
