// Package worker provides the task dispatcher that decouples request
// handling from background execution. Handlers submit Job values to a
// buffered queue and return immediately; a fixed pool of workers drains the
// queue, at most one worker executing any given submitted job instance.
package worker

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is a unit of background work.
type Job interface {
	Execute() error
	ID() string
}

// ErrQueueFull is returned by Submit when the job queue has no capacity.
var ErrQueueFull = errors.New("job queue is full")

// Dispatcher manages a pool of workers and routes submitted jobs to them.
type Dispatcher struct {
	maxWorkers int
	workerPool chan chan Job
	jobQueue   chan Job
	quit       chan struct{}
	wg         sync.WaitGroup
	log        *logrus.Logger
}

// NewDispatcher creates a dispatcher with maxWorkers workers and a job
// queue of the given size.
func NewDispatcher(maxWorkers, queueSize int, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		maxWorkers: maxWorkers,
		workerPool: make(chan chan Job, maxWorkers),
		jobQueue:   make(chan Job, queueSize),
		quit:       make(chan struct{}),
		log:        log,
	}
}

// Run starts the workers and the dispatch loop.
func (d *Dispatcher) Run() {
	d.log.WithField("workers", d.maxWorkers).Info("Starting worker dispatcher")
	for i := 1; i <= d.maxWorkers; i++ {
		d.wg.Add(1)
		go d.runWorker(i)
	}
	go d.dispatch()
}

// Submit queues a job for background execution. It never blocks: if the
// queue is full the job is rejected with ErrQueueFull.
func (d *Dispatcher) Submit(job Job) error {
	select {
	case d.jobQueue <- job:
		d.log.WithField("job_id", job.ID()).Info("Job submitted to queue")
		return nil
	default:
		d.log.WithField("job_id", job.ID()).Warn("Job queue full, rejecting job")
		return ErrQueueFull
	}
}

// Stop shuts the dispatcher down and waits for in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	d.log.Info("Stopping worker dispatcher")
	close(d.quit)
	d.wg.Wait()
	d.log.Info("All workers stopped")
}

// dispatch hands each queued job to the next idle worker.
func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			go func(job Job) {
				jobChannel := <-d.workerPool
				jobChannel <- job
			}(job)
		case <-d.quit:
			return
		}
	}
}

func (d *Dispatcher) runWorker(id int) {
	defer d.wg.Done()
	jobs := make(chan Job)
	for {
		// Register as idle, then wait for work or shutdown.
		d.workerPool <- jobs

		select {
		case job := <-jobs:
			entry := d.log.WithFields(logrus.Fields{"worker": id, "job_id": job.ID()})
			entry.Info("Worker started job")
			if err := job.Execute(); err != nil {
				entry.WithField("error", err.Error()).Error("Job failed")
			} else {
				entry.Info("Worker finished job")
			}
		case <-d.quit:
			return
		}
	}
}
