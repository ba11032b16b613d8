package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/twoLoop-40/hwp-transformer/internal/config"
	"github.com/twoLoop-40/hwp-transformer/internal/metrics"
)

// Orchestrator runs queued transcription jobs on a fixed pool of workers.
// Every job owns its own document session.
type Orchestrator struct {
	jobs        *JobStore
	queue       chan *Job
	transcriber *Transcriber
	log         *slog.Logger
	cfg         config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch the workers.
func NewOrchestrator(cfg config.Config, m metrics.Metrics, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:        NewJobStore(cfg.JobTTL),
		queue:       make(chan *Job, cfg.MaxQueueSize),
		transcriber: NewTranscriber(cfg, m, log),
		log:         log,
		cfg:         cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.transcriber, o.log, o.cfg.OutputSuffix)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				for _, job := range o.jobs.Cleanup() {
					o.removeWorkDir(job)
				}
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// NewJob allocates a job and its work directory so uploads can be written
// before Submit.
func (o *Orchestrator) NewJob(filename string) (*Job, error) {
	job := NewJob(filename)
	dir := filepath.Join(o.cfg.WorkDir, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	job.SetInputs(dir, "", nil)
	return job, nil
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// DeleteJob forgets a job and removes its files. It reports false for an
// unknown ID.
func (o *Orchestrator) DeleteJob(id string) bool {
	job := o.jobs.Delete(id)
	if job == nil {
		return false
	}
	o.removeWorkDir(job)
	return true
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) removeWorkDir(job *Job) {
	dir := job.WorkDir()
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		o.log.Warn("remove work dir failed", "job_id", job.ID, "error", err)
	}
}
