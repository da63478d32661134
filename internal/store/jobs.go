// Package store persists upload jobs and products through PostgREST.
// It is the only package that talks to the database tables directly; the
// handlers and background jobs depend on small interfaces satisfied here.
package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"

	"prodhub/catalog-api/models"
)

const jobsTable = "upload_jobs"

// ErrJobNotFound is returned when no upload job exists for a given id.
var ErrJobNotFound = errors.New("upload job not found")

// JobStore is the durable ledger of upload jobs. A job is visible to reads
// as soon as CreateJob returns; after that it is mutated only by the worker
// executing it.
type JobStore struct {
	client *postgrest.Client
}

func NewJobStore(client *postgrest.Client) *JobStore {
	return &JobStore{client: client}
}

// CreateJob inserts a new job in PENDING state and returns it. created_at
// is left to the database default.
func (s *JobStore) CreateJob() (*models.UploadJob, error) {
	jobID := uuid.New()
	record := map[string]interface{}{
		"job_id": jobID.String(),
		"status": models.JobStatusPending,
	}

	var results []models.UploadJob
	_, err := s.client.From(jobsTable).
		Insert(record, false, "", "representation", "").
		ExecuteTo(&results)
	if err != nil {
		return nil, fmt.Errorf("inserting upload job: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no record returned after insert, job_id: %s", jobID)
	}

	return &results[0], nil
}

// GetJob fetches a job by id. Returns ErrJobNotFound for unknown ids rather
// than an empty record.
func (s *JobStore) GetJob(jobID uuid.UUID) (*models.UploadJob, error) {
	var jobs []models.UploadJob
	_, err := s.client.From(jobsTable).
		Select("*", "", false).
		Eq("job_id", jobID.String()).
		Limit(1, "").
		ExecuteTo(&jobs)
	if err != nil {
		return nil, fmt.Errorf("fetching upload job %s: %w", jobID, err)
	}
	if len(jobs) == 0 {
		return nil, ErrJobNotFound
	}
	return &jobs[0], nil
}

// MarkProcessing transitions the job out of PENDING before any row is parsed.
func (s *JobStore) MarkProcessing(jobID uuid.UUID) error {
	return s.update(jobID, map[string]interface{}{
		"status": models.JobStatusProcessing,
	})
}

// Complete transitions the job to COMPLETED with a progress summary and
// clears any error text.
func (s *JobStore) Complete(jobID uuid.UUID, progress string) error {
	return s.update(jobID, map[string]interface{}{
		"status":   models.JobStatusCompleted,
		"progress": progress,
		"error":    "",
	})
}

// Fail transitions the job to FAILED with a descriptive error message.
// Progress is left as last set.
func (s *JobStore) Fail(jobID uuid.UUID, message string) error {
	return s.update(jobID, map[string]interface{}{
		"status": models.JobStatusFailed,
		"error":  message,
	})
}

func (s *JobStore) update(jobID uuid.UUID, fields map[string]interface{}) error {
	_, _, err := s.client.From(jobsTable).
		Update(fields, "", "").
		Eq("job_id", jobID.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("updating upload job %s: %w", jobID, err)
	}
	return nil
}
