package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/logger"
)

// ErrNotCancelable is returned by CancelJob for jobs created with Cancelable=false.
var ErrNotCancelable = errors.New("job is not cancelable")

/*
Notifier receives one full job snapshot on every state change. The production
implementation pushes through the SSE hub; tests plug in a recorder.
All methods must be non-blocking from the Manager's point of view.
*/
type Notifier interface {
	JobCreated(job *Job)
	JobProgress(job *Job)
	JobAwaitingInput(job *Job)
	JobResumed(job *Job)
	JobDone(job *Job)
	JobFailed(job *Job)
	JobCancelled(job *Job)
}

type CreateParams struct {
	Type        Type
	Title       string
	Description string
	StepsTotal  int
	Cancelable  bool
	Metadata    map[string]any
}

type jobWatch struct {
	ctx    context.Context
	cancel context.CancelFunc
}

/*
Manager owns every Job record for its entire lifetime and is the only
component permitted to mutate one. It is an explicit, constructor-injected
store: tests instantiate isolated managers, nothing is process-global.

All operations are synchronous and safe to call concurrently from HTTP
handlers and background tasks. Each mutating operation is atomic with
respect to every field it touches (status + progress + result/error move
as one unit under the mutex), and every read hands out a deep snapshot,
so a reader can never observe status=completed with a stale result.

Jobs are in-memory only and live until process exit. Completed jobs older
than the retention window are evicted lazily on CreateJob to bound growth.
*/
type Manager struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*Job
	watch  map[uuid.UUID]*jobWatch
	log    *logger.Logger
	notify Notifier

	// maxDuration, when non-zero, puts a deadline on every job's context.
	// A hung provider call then aborts instead of leaking the job forever.
	maxDuration time.Duration
	retention   time.Duration
	now         func() time.Time
}

type ManagerOption func(*Manager)

// WithMaxJobDuration sets a per-job deadline applied to the job context.
func WithMaxJobDuration(d time.Duration) ManagerOption {
	return func(m *Manager) { m.maxDuration = d }
}

// WithRetention bounds how long terminal jobs are kept before lazy eviction.
func WithRetention(d time.Duration) ManagerOption {
	return func(m *Manager) { m.retention = d }
}

func NewManager(baseLog *logger.Logger, notify Notifier, opts ...ManagerOption) *Manager {
	m := &Manager{
		jobs:      make(map[uuid.UUID]*Job),
		watch:     make(map[uuid.UUID]*jobWatch),
		log:       baseLog.With("component", "JobManager"),
		notify:    notify,
		retention: 24 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

/*
CreateJob allocates a new Job in status queued and returns its id. Never fails.
StepsTotal defaults to 1. Metadata is copied and immutable afterwards.
*/
func (m *Manager) CreateJob(p CreateParams) uuid.UUID {
	stepsTotal := p.StepsTotal
	if stepsTotal < 1 {
		stepsTotal = 1
	}
	job := &Job{
		ID:          uuid.New(),
		Type:        p.Type,
		Status:      StatusQueued,
		Title:       p.Title,
		Description: p.Description,
		StepsTotal:  stepsTotal,
		Metadata:    copyMap(p.Metadata),
		Cancelable:  p.Cancelable,
		CreatedAt:   m.now(),
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if m.maxDuration > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.maxDuration)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	m.mu.Lock()
	m.evictExpiredLocked()
	m.jobs[job.ID] = job
	m.watch[job.ID] = &jobWatch{ctx: ctx, cancel: cancel}
	snap := job.snapshot()
	m.mu.Unlock()

	m.log.Debug("Job created", "job_id", job.ID, "job_type", job.Type, "title", job.Title)
	if m.notify != nil {
		m.notify.JobCreated(snap)
	}
	return job.ID
}

// GetJob returns a deep snapshot, or ErrNotFound for an unknown id.
func (m *Manager) GetJob(id uuid.UUID) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictExpiredLocked()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.snapshot(), nil
}

// ListJobs returns snapshots of all live jobs, newest first.
func (m *Manager) ListJobs() []*Job {
	m.mu.Lock()
	m.evictExpiredLocked()
	out := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job.snapshot())
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

/*
Context returns the cancellation context tied to a job. It is cancelled by
CancelJob and on every terminal transition, so agent calls started with it
abort as soon as the job stops mattering. Unknown ids get a pre-cancelled
context rather than an error, since callers use this on a hot path.
*/
func (m *Manager) Context(id uuid.UUID) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.watch[id]; ok {
		return w.ctx
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// StartJob transitions queued -> running and stamps StartedAt.
func (m *Manager) StartJob(id uuid.UUID) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if job.Status != StatusQueued {
		from := job.Status
		m.mu.Unlock()
		return &InvalidTransitionError{JobID: id, From: from, Op: "start"}
	}
	now := m.now()
	job.Status = StatusRunning
	job.StartedAt = &now
	snap := job.snapshot()
	m.mu.Unlock()

	if m.notify != nil {
		m.notify.JobProgress(snap)
	}
	return nil
}

/*
UpdateProgress is allowed only while running. Progress is clamped to [0,1]
and never regresses: an update below the current value keeps the current
value (the message and step still update). StepsCompleted is derived from
progress against StepsTotal.
*/
func (m *Manager) UpdateProgress(id uuid.UUID, progress float64, message string, currentStep string) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if job.Status != StatusRunning {
		from := job.Status
		m.mu.Unlock()
		return &InvalidTransitionError{JobID: id, From: from, Op: "update progress"}
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.ProgressMessage = message
	if currentStep != "" {
		job.CurrentStep = currentStep
	}
	job.StepsCompleted = int(job.Progress*float64(job.StepsTotal) + 1e-9)
	snap := job.snapshot()
	m.mu.Unlock()

	if m.notify != nil {
		m.notify.JobProgress(snap)
	}
	return nil
}

// CompleteJob transitions running -> completed, sets the result exactly once
// and forces progress to 1.0.
func (m *Manager) CompleteJob(id uuid.UUID, result map[string]any) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if job.Status != StatusRunning {
		from := job.Status
		m.mu.Unlock()
		return &InvalidTransitionError{JobID: id, From: from, Op: "complete"}
	}
	now := m.now()
	job.Status = StatusCompleted
	job.Result = copyMap(result)
	job.Progress = 1.0
	job.StepsCompleted = job.StepsTotal
	job.ProgressMessage = ""
	job.CompletedAt = &now
	snap := job.snapshot()
	m.cancelWatchLocked(id)
	m.mu.Unlock()

	m.log.Debug("Job completed", "job_id", id, "job_type", snap.Type)
	if m.notify != nil {
		m.notify.JobDone(snap)
	}
	return nil
}

// FailJob transitions running -> failed and sets the error string exactly once.
func (m *Manager) FailJob(id uuid.UUID, errMsg string) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if job.Status != StatusRunning {
		from := job.Status
		m.mu.Unlock()
		return &InvalidTransitionError{JobID: id, From: from, Op: "fail"}
	}
	now := m.now()
	job.Status = StatusFailed
	job.Error = errMsg
	job.ProgressMessage = ""
	job.CompletedAt = &now
	snap := job.snapshot()
	m.cancelWatchLocked(id)
	m.mu.Unlock()

	m.log.Warn("Job failed", "job_id", id, "job_type", snap.Type, "error", errMsg)
	if m.notify != nil {
		m.notify.JobFailed(snap)
	}
	return nil
}

/*
CancelJob transitions any non-terminal status to cancelled, provided the job
was created cancelable. Cancellation is cooperative: this flips the state and
cancels the job context; the driving task observes either before/between steps
and stops. An in-flight agent call is never forcibly interrupted beyond its
context being cancelled.
*/
func (m *Manager) CancelJob(id uuid.UUID) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if job.Status.Terminal() {
		from := job.Status
		m.mu.Unlock()
		return &InvalidTransitionError{JobID: id, From: from, Op: "cancel"}
	}
	if !job.Cancelable {
		m.mu.Unlock()
		return ErrNotCancelable
	}
	now := m.now()
	job.Status = StatusCancelled
	job.AwaitingData = nil
	job.BriefCard = nil
	job.ProgressMessage = ""
	job.CompletedAt = &now
	snap := job.snapshot()
	m.cancelWatchLocked(id)
	m.mu.Unlock()

	m.log.Info("Job cancelled", "job_id", id, "job_type", snap.Type)
	if m.notify != nil {
		m.notify.JobCancelled(snap)
	}
	return nil
}

/*
PauseForInput transitions running -> awaiting_input and stores the payload
the job is waiting on, plus the UI brief card. awaitingData is never stored
nil so the "awaiting_input implies non-nil awaiting_data" invariant holds
even for an empty proposal.
*/
func (m *Manager) PauseForInput(id uuid.UUID, awaitingData map[string]any, card *BriefCard) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if job.Status != StatusRunning {
		from := job.Status
		m.mu.Unlock()
		return &InvalidTransitionError{JobID: id, From: from, Op: "pause for input"}
	}
	data := copyMap(awaitingData)
	if data == nil {
		data = map[string]any{}
	}
	job.Status = StatusAwaitingInput
	job.AwaitingData = data
	job.BriefCard = card
	snap := job.snapshot()
	m.mu.Unlock()

	m.log.Info("Job awaiting input", "job_id", id, "job_type", snap.Type)
	if m.notify != nil {
		m.notify.JobAwaitingInput(snap)
	}
	return nil
}

/*
ResumeWithInput is valid only from awaiting_input, which makes it the single
guard against double-resume races: the check and the transition happen
atomically under the mutex, so a second resume always fails with
InvalidTransition.

The decision is recorded on the job for audit. Action "cancel" moves the job
straight to cancelled (an explicit human decision, honored regardless of the
Cancelable flag). Any other action returns the job to running; the caller
owns scheduling the continuation that does the actual work.

The returned Resumption carries the awaiting payload the job was paused on,
since the job's own AwaitingData is cleared by this call.
*/
func (m *Manager) ResumeWithInput(id uuid.UUID, input ResumeInput) (*Resumption, error) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if job.Status != StatusAwaitingInput {
		from := job.Status
		m.mu.Unlock()
		return nil, &InvalidTransitionError{JobID: id, From: from, Op: "resume"}
	}
	now := m.now()
	res := &Resumption{
		Input:        ResumeInput{Action: input.Action, EditedData: copyMap(input.EditedData)},
		AwaitingData: job.AwaitingData,
		DecidedAt:    now,
	}
	job.Resumption = res
	job.AwaitingData = nil
	job.BriefCard = nil

	cancelled := input.Action == "cancel"
	if cancelled {
		job.Status = StatusCancelled
		job.ProgressMessage = ""
		job.CompletedAt = &now
	} else {
		job.Status = StatusRunning
	}
	out := &Resumption{
		Input:        ResumeInput{Action: res.Input.Action, EditedData: copyMap(res.Input.EditedData)},
		AwaitingData: copyMap(res.AwaitingData),
		DecidedAt:    now,
	}
	snap := job.snapshot()
	if cancelled {
		m.cancelWatchLocked(id)
	}
	m.mu.Unlock()

	m.log.Info("Job resumed", "job_id", id, "action", input.Action)
	if m.notify != nil {
		if cancelled {
			m.notify.JobCancelled(snap)
		} else {
			m.notify.JobResumed(snap)
		}
	}
	return out, nil
}

// cancelWatchLocked releases the job context on terminal transitions so
// in-flight agent calls abort promptly. Caller holds m.mu.
func (m *Manager) cancelWatchLocked(id uuid.UUID) {
	if w, ok := m.watch[id]; ok {
		w.cancel()
	}
}

// evictExpiredLocked drops terminal jobs past the retention window.
// Caller holds m.mu.
func (m *Manager) evictExpiredLocked() {
	if m.retention <= 0 {
		return
	}
	cutoff := m.now().Add(-m.retention)
	for id, job := range m.jobs {
		if !job.Status.Terminal() || job.CompletedAt == nil {
			continue
		}
		if job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			if w, ok := m.watch[id]; ok {
				w.cancel()
				delete(m.watch, id)
			}
		}
	}
}
