package jobs

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodhub/catalog-api/models"
)

type fakeLedger struct {
	status            string
	progress          string
	errMessage        string
	transitions       []string
	markProcessingErr error
}

func (f *fakeLedger) MarkProcessing(jobID uuid.UUID) error {
	if f.markProcessingErr != nil {
		return f.markProcessingErr
	}
	f.status = models.JobStatusProcessing
	f.transitions = append(f.transitions, f.status)
	return nil
}

func (f *fakeLedger) Complete(jobID uuid.UUID, progress string) error {
	f.status = models.JobStatusCompleted
	f.progress = progress
	f.errMessage = ""
	f.transitions = append(f.transitions, f.status)
	return nil
}

func (f *fakeLedger) Fail(jobID uuid.UUID, message string) error {
	f.status = models.JobStatusFailed
	f.errMessage = message
	f.transitions = append(f.transitions, f.status)
	return nil
}

type fakeUpserter struct {
	batches    [][]models.Product
	calls      int
	failOnCall int // 1-based; 0 means never fail
	onUpsert   func()
}

func (f *fakeUpserter) UpsertBatch(products []models.Product) error {
	f.calls++
	if f.onUpsert != nil {
		f.onUpsert()
	}
	if f.failOnCall != 0 && f.calls == f.failOnCall {
		return errors.New("store write failed")
	}
	f.batches = append(f.batches, append([]models.Product(nil), products...))
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestImportJob(content string, ledger *fakeLedger, store *fakeUpserter) *ImportProductsJob {
	return NewImportProductsJob(uuid.New(), content, ledger, store, quietLogger())
}

func csvWithRows(n int) string {
	var b strings.Builder
	b.WriteString("sku,name,description\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "SKU-%d,Product %d,\n", i, i)
	}
	return b.String()
}

func TestImportJobCompletes(t *testing.T) {
	ledger := &fakeLedger{}
	store := &fakeUpserter{}
	job := newTestImportJob("sku,name,description\nsku-1,Bolt,Steel bolt\n,Ignored,Row\nSKU-2,Nut,\n", ledger, store)

	require.NoError(t, job.Execute())

	assert.Equal(t, []string{models.JobStatusProcessing, models.JobStatusCompleted}, ledger.transitions)
	assert.Equal(t, "Successfully imported 2 products.", ledger.progress)
	assert.Empty(t, ledger.errMessage)

	require.Len(t, store.batches, 1)
	require.Len(t, store.batches[0], 2)
	assert.Equal(t, "SKU-1", store.batches[0][0].SKU)
	assert.Equal(t, "SKU-2", store.batches[0][1].SKU)
}

func TestImportJobMarksProcessingBeforeUpserting(t *testing.T) {
	ledger := &fakeLedger{}
	store := &fakeUpserter{}
	store.onUpsert = func() {
		assert.Equal(t, models.JobStatusProcessing, ledger.status)
	}
	job := newTestImportJob(csvWithRows(3), ledger, store)

	require.NoError(t, job.Execute())
	assert.Equal(t, 1, store.calls)
}

func TestImportJobSplitsIntoSubBatches(t *testing.T) {
	ledger := &fakeLedger{}
	store := &fakeUpserter{}
	job := newTestImportJob(csvWithRows(5), ledger, store)
	job.BatchSize = 2

	require.NoError(t, job.Execute())

	require.Len(t, store.batches, 3)
	assert.Len(t, store.batches[0], 2)
	assert.Len(t, store.batches[1], 2)
	assert.Len(t, store.batches[2], 1)
	assert.Equal(t, "Successfully imported 5 products.", ledger.progress)
}

func TestImportJobPartialApplyOnMidBatchFailure(t *testing.T) {
	ledger := &fakeLedger{}
	store := &fakeUpserter{failOnCall: 2}
	job := newTestImportJob(csvWithRows(6), ledger, store)
	job.BatchSize = 2

	require.NoError(t, job.Execute(), "engine failures must not reach the worker pool")

	assert.Equal(t, []string{models.JobStatusProcessing, models.JobStatusFailed}, ledger.transitions)
	assert.NotEmpty(t, ledger.errMessage)
	assert.Empty(t, ledger.progress)

	// The first sub-batch committed before the failure and stays applied.
	require.Len(t, store.batches, 1)
	assert.Equal(t, "SKU-1", store.batches[0][0].SKU)
	assert.Equal(t, "SKU-2", store.batches[0][1].SKU)
}

func TestImportJobFailsOnParseError(t *testing.T) {
	ledger := &fakeLedger{}
	store := &fakeUpserter{}
	job := newTestImportJob("sku,name\nSKU-1,\"unterminated\n", ledger, store)

	require.NoError(t, job.Execute())

	assert.Equal(t, []string{models.JobStatusProcessing, models.JobStatusFailed}, ledger.transitions)
	assert.NotEmpty(t, ledger.errMessage)
	assert.Zero(t, store.calls, "nothing may be upserted when the parse fails")
}

func TestImportJobEmptyFileCompletesWithZero(t *testing.T) {
	ledger := &fakeLedger{}
	store := &fakeUpserter{}
	job := newTestImportJob("", ledger, store)

	require.NoError(t, job.Execute())

	assert.Equal(t, models.JobStatusCompleted, ledger.status)
	assert.Equal(t, "Successfully imported 0 products.", ledger.progress)
	assert.Zero(t, store.calls)
}

func TestImportJobAbandonsWhenProcessingTransitionFails(t *testing.T) {
	ledger := &fakeLedger{markProcessingErr: errors.New("ledger unavailable")}
	store := &fakeUpserter{}
	job := newTestImportJob(csvWithRows(2), ledger, store)

	require.NoError(t, job.Execute())

	assert.Equal(t, models.JobStatusFailed, ledger.status)
	assert.NotEmpty(t, ledger.errMessage)
	assert.Zero(t, store.calls)
}

func TestImportJobReachesExactlyOneTerminalState(t *testing.T) {
	for name, content := range map[string]string{
		"success": csvWithRows(2),
		"failure": "sku,name\nSKU-1,\"unterminated\n",
	} {
		t.Run(name, func(t *testing.T) {
			ledger := &fakeLedger{}
			job := newTestImportJob(content, ledger, &fakeUpserter{})

			require.NoError(t, job.Execute())

			require.Len(t, ledger.transitions, 2)
			assert.Equal(t, models.JobStatusProcessing, ledger.transitions[0])
			terminal := ledger.transitions[1]
			assert.Contains(t, []string{models.JobStatusCompleted, models.JobStatusFailed}, terminal)
		})
	}
}
