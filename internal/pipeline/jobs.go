package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/twoLoop-40/hwp-transformer/internal/transform"
)

// JobStatus represents the state of a transcription job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusLoading   JobStatus = "loading"
	StatusTyping    JobStatus = "typing"
	StatusEquations JobStatus = "equations"
	StatusImages    JobStatus = "images"
	StatusSaving    JobStatus = "saving"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single transcription.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	workDir    string
	sourcePath string
	imagePaths []string
	outputPath string
	errors     []string
}

// Progress reports what the passes produced so far.
type Progress struct {
	Equations int               `json:"equations"`
	Images    int               `json:"images"`
	Failed    int               `json:"failed"`
	Math      []transform.Stats `json:"math"`
	ImagePass *transform.Stats  `json:"image_pass,omitempty"`
	Errors    []string          `json:"errors"`
}

// NewJob creates a queued job with a fresh ID.
func NewJob(filename string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Delete removes a job and returns it, or nil if it was unknown.
func (s *JobStore) Delete(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[id]
	delete(s.jobs, id)
	return job
}

// Cleanup removes expired jobs and returns them.
func (s *JobStore) Cleanup() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var evicted []*Job
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
			evicted = append(evicted, job)
		}
	}
	return evicted
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddMathPass records a finished math pass.
func (j *Job) AddMathPass(s transform.Stats) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Math = append(j.Progress.Math, s)
	j.Progress.Equations += s.Replaced
	j.Progress.Failed += s.Failed
	j.UpdatedAt = time.Now()
}

// SetImagePass records the image pass.
func (j *Job) SetImagePass(s transform.Stats) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ImagePass = &s
	j.Progress.Images = s.Replaced
	j.Progress.Failed += s.Failed
	j.UpdatedAt = time.Now()
}

// SetInputs records where the uploaded files were written.
func (j *Job) SetInputs(workDir, source string, images []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.workDir = workDir
	j.sourcePath = source
	j.imagePaths = images
}

// WorkDir returns the directory holding the job's files.
func (j *Job) WorkDir() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.workDir
}

func (j *Job) setOutputPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outputPath = path
}

// OutputPath returns the produced document, empty until the job has saved one.
func (j *Job) OutputPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outputPath
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	math := append([]transform.Stats{}, j.Progress.Math...)
	var img *transform.Stats
	if j.Progress.ImagePass != nil {
		cp := *j.Progress.ImagePass
		img = &cp
	}
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Progress: Progress{
			Equations: j.Progress.Equations,
			Images:    j.Progress.Images,
			Failed:    j.Progress.Failed,
			Math:      math,
			ImagePass: img,
			Errors:    errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
