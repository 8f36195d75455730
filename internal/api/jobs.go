package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/core/notice"
	"github.com/FocuswithJustin/tcvalidate/internal/dispatch"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// Job is an asynchronous repo or book package check.
type Job struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Target      string         `json:"target"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"` // 0-100
	Stage       string         `json:"stage,omitempty"`
	Result      *notice.Result `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
	CompletedAt string         `json:"completed_at,omitempty"`

	seq    int
	ctx    context.Context
	cancel context.CancelFunc
}

// JobStore manages check jobs in memory. Callers receive copies, so a
// returned Job never changes underneath them.
type JobStore struct {
	jobs map[string]*Job
	seq  int
	mu   sync.RWMutex
}

// NewJobStore creates a new job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Create adds a pending job whose context derives from parent.
func (s *JobStore) Create(parent context.Context, kind, target string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	ts := now()
	s.seq++
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Target:    target,
		Status:    JobStatusPending,
		CreatedAt: ts,
		UpdatedAt: ts,
		seq:       s.seq,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.jobs[job.ID] = job
	return *job
}

// Get retrieves a job by ID.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns all jobs in creation order.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	slices.SortFunc(jobs, func(a, b Job) int {
		return a.seq - b.seq
	})
	return jobs
}

// Progress records a running job's progress. Finished jobs are unchanged.
func (s *JobStore) Progress(id string, progress int, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.terminal() {
		return
	}
	job.Status = JobStatusRunning
	job.Progress = progress
	job.Stage = stage
	job.UpdatedAt = now()
}

// Finish stores a job's result. A job cancelled meanwhile keeps its
// cancelled status but still receives the partial result.
func (s *JobStore) Finish(id string, result *notice.Result) (JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return "", errors.NewNotFound("job", id)
	}
	ts := now()
	job.Result = result
	job.UpdatedAt = ts
	if job.CompletedAt == "" {
		job.CompletedAt = ts
	}
	if job.Status != JobStatusCancelled {
		job.Status = JobStatusCompleted
		job.Progress = 100
	}
	job.cancel()
	return job.Status, nil
}

// Cancel cancels a pending or running job.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return errors.NewNotFound("job", id)
	}
	if job.Status.terminal() {
		return errors.NewValidation("status", "job cannot be cancelled (status: "+string(job.Status)+")")
	}

	job.cancel()
	ts := now()
	job.Status = JobStatusCancelled
	job.Error = "job cancelled by user"
	job.UpdatedAt = ts
	job.CompletedAt = ts
	return nil
}

// Delete removes a job, cancelling it first if it is still running.
func (s *JobStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return errors.NewNotFound("job", id)
	}
	job.cancel()
	delete(s.jobs, id)
	return nil
}

// CancelAll cancels every unfinished job.
func (s *JobStore) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if !job.Status.terminal() {
			job.cancel()
			job.Status = JobStatusCancelled
			job.Error = "server shutting down"
			job.UpdatedAt = now()
			job.CompletedAt = job.UpdatedAt
		}
	}
}

// checkFunc runs one orchestrated check.
type checkFunc func(ctx context.Context, progress dispatch.Progress) *notice.Result

// startJob creates a job and runs check in the background, streaming its
// progress to websocket clients.
func (s *Server) startJob(kind, target string, check checkFunc) Job {
	job := s.jobs.Create(s.ctx, kind, target)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := logging.WithSessionID(job.ctx, job.ID)

		s.hub.Broadcast(ProgressMessage{
			Type:      MessageStarted,
			Operation: kind,
			JobID:     job.ID,
			Message:   target,
		})

		res := check(ctx, func(e dispatch.Event) {
			pct := 0
			if e.Total > 0 {
				pct = e.Done * 100 / e.Total
			}
			s.jobs.Progress(job.ID, pct, e.Target)
			s.hub.Broadcast(ProgressMessage{
				Type:      MessageProgress,
				Operation: kind,
				JobID:     job.ID,
				Stage:     e.Target,
				Progress:  pct,
				Message:   e.Message,
			})
		})

		status, err := s.jobs.Finish(job.ID, res)
		if err != nil {
			// Deleted while running.
			logging.DebugContext(ctx, "job result discarded", "job_id", job.ID)
			return
		}
		if status == JobStatusCancelled {
			s.hub.Broadcast(ProgressMessage{
				Type:      MessageError,
				Operation: kind,
				JobID:     job.ID,
				Message:   "job cancelled",
			})
			return
		}
		s.hub.Broadcast(ProgressMessage{
			Type:      MessageComplete,
			Operation: kind,
			JobID:     job.ID,
			Progress:  100,
			Message:   "Finished " + target,
			Data: map[string]any{
				"notices":          len(res.NoticeList),
				"checkedFileCount": res.CheckedFileCount,
				"elapsedSeconds":   res.ElapsedSeconds,
			},
		})
	}()
	return job
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}
	jobs := s.jobs.List()
	// Listing omits results, which can be large.
	for i := range jobs {
		jobs[i].Result = nil
	}
	respondList(w, jobs, len(jobs))
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Job IDs are UUIDs")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, ok := s.jobs.Get(id)
		if !ok {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
			return
		}
		respond(w, http.StatusOK, job)

	case http.MethodDelete:
		if err := s.jobs.Cancel(id); err != nil {
			if errors.IsNotFound(err) {
				respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
				return
			}
			respondError(w, http.StatusConflict, "CONFLICT", err.Error())
			return
		}
		job, _ := s.jobs.Get(id)
		respond(w, http.StatusOK, job)

	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}
