// Package worker runs catalog ingestion jobs in the background.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashwini-1013/org-workspace/internal/core/services"
	"github.com/ashwini-1013/org-workspace/internal/metrics"
)

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

var (
	ErrQueueFull = errors.New("worker: ingestion queue is full")
	ErrStopped   = errors.New("worker: pool stopped")
	ErrNotFound  = errors.New("worker: job not found")
)

// Runner ingests the catalog at path.
type Runner func(ctx context.Context, path string) (services.IngestReport, error)

// Job is a snapshot of one submitted ingestion.
type Job struct {
	ID         string                 `json:"id"`
	Path       string                 `json:"path"`
	Status     JobStatus              `json:"status"`
	Error      string                 `json:"error,omitempty"`
	QueuedAt   time.Time              `json:"queuedAt"`
	StartedAt  *time.Time             `json:"startedAt,omitempty"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
	Report     *services.IngestReport `json:"-"`
}

// Pool runs jobs one at a time so the store and index keep a single writer.
type Pool struct {
	run    Runner
	jobs   chan string
	logger zerolog.Logger

	mu      sync.RWMutex
	state   map[string]*Job
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a pool with room for queueSize pending jobs.
func NewPool(run Runner, queueSize int, logger zerolog.Logger) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		run:    run,
		jobs:   make(chan string, queueSize),
		logger: logger.With().Str("component", "worker").Logger(),
		state:  make(map[string]*Job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the worker goroutine.
func (p *Pool) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for id := range p.jobs {
			p.processJob(id)
		}
	}()
}

// Stop cancels the running job, drops queued ones and waits for the worker.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// Submit queues an ingestion of path without blocking.
func (p *Pool) Submit(path string) (Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return Job{}, ErrStopped
	}

	job := &Job{ID: uuid.NewString(), Path: path, Status: StatusQueued, QueuedAt: time.Now().UTC()}
	select {
	case p.jobs <- job.ID:
	default:
		p.logger.Warn().Str("path", path).Msg("dropping ingestion job, queue full")
		return Job{}, ErrQueueFull
	}
	p.state[job.ID] = job
	return *job, nil
}

// Get returns a snapshot of the job with id.
func (p *Pool) Get(id string) (Job, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	job, ok := p.state[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *job, nil
}

func (p *Pool) processJob(id string) {
	if p.ctx.Err() != nil {
		p.finish(id, nil, p.ctx.Err())
		return
	}

	now := time.Now().UTC()
	p.mu.Lock()
	job := p.state[id]
	job.Status = StatusRunning
	job.StartedAt = &now
	path := job.Path
	p.mu.Unlock()

	log := p.logger.With().Str("job_id", id).Str("path", path).Logger()
	log.Info().Msg("ingestion job started")

	report, err := p.run(p.ctx, path)
	p.finish(id, &report, err)

	if err != nil {
		log.Error().Err(err).Msg("ingestion job failed")
		return
	}
	log.Info().Int("indexed", report.Indexed).Int("metadata_only", report.MetadataOnly).Msg("ingestion job completed")
}

func (p *Pool) finish(id string, report *services.IngestReport, err error) {
	now := time.Now().UTC()
	p.mu.Lock()
	defer p.mu.Unlock()
	job := p.state[id]
	job.FinishedAt = &now
	job.Report = report
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
	} else {
		job.Status = StatusCompleted
	}
	metrics.IngestJobs.WithLabelValues(string(job.Status)).Inc()
}
