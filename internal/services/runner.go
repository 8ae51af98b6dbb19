package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/workflow"
)

// ErrJobPaused is the sentinel a job body returns after calling
// PauseForInput: the job is neither complete nor failed, it is waiting.
var ErrJobPaused = errors.New("job paused for input")

/*
Runner drives job bodies as cooperative background tasks, one goroutine per
job, all in-process. It owns the glue between a body and the Manager: a
started body produces exactly one terminal transition, and a panic never
escapes the goroutine.

Cancellation is observed, not forced: bodies receive the job's context and
the executor checks it between steps; a job cancelled mid-flight simply has
its final Complete/Fail rejected by the Manager, which the Runner treats as
a quiet no-op.
*/
type Runner struct {
	log      *logger.Logger
	mgr      *jobs.Manager
	executor *workflow.SequentialExecutor
	tracer   trace.Tracer

	// batchLimit bounds concurrent batch items per batch job.
	batchLimit int
	wg         sync.WaitGroup
}

func NewRunner(baseLog *logger.Logger, mgr *jobs.Manager, executor *workflow.SequentialExecutor, batchLimit int) *Runner {
	if batchLimit < 1 {
		batchLimit = 4
	}
	return &Runner{
		log:        baseLog.With("component", "JobRunner"),
		mgr:        mgr,
		executor:   executor,
		tracer:     otel.Tracer("studio.jobs"),
		batchLimit: batchLimit,
	}
}

// Body is one job's driving logic. Returning ErrJobPaused leaves the job in
// awaiting_input; any other error fails the job; a nil error completes it
// with the returned result.
type Body func(ctx context.Context) (map[string]any, error)

// Go schedules a queued job's body as a background task and returns
// immediately.
func (r *Runner) Go(jobID uuid.UUID, body Body) {
	r.spawn(jobID, body, true)
}

// Continue schedules a resume continuation for a job that ResumeWithInput
// already returned to running. No StartJob is attempted.
func (r *Runner) Continue(jobID uuid.UUID, body Body) {
	r.spawn(jobID, body, false)
}

// Wait blocks until every scheduled task has finished. Used by tests and
// graceful shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) spawn(jobID uuid.UUID, body Body, start bool) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.drive(jobID, body, start)
	}()
}

func (r *Runner) drive(jobID uuid.UUID, body Body, start bool) {
	ctx := r.mgr.Context(jobID)
	ctx, span := r.tracer.Start(ctx, "job.run", trace.WithAttributes(attribute.String("job.id", jobID.String())))
	defer span.End()

	if start {
		if err := r.mgr.StartJob(jobID); err != nil {
			// Cancelled while still queued, or already gone.
			r.log.Debug("Job not started", "job_id", jobID, "error", err)
			return
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Job body panic", "job_id", jobID, "panic", rec)
			r.finishFail(jobID, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	result, err := body(ctx)
	switch {
	case errors.Is(err, ErrJobPaused):
		// Body parked the job in awaiting_input; the resume continuation
		// owns the rest.
	case err != nil:
		r.finishFail(jobID, err.Error())
	default:
		if err := r.mgr.CompleteJob(jobID, result); err != nil && !jobs.IsInvalidTransition(err) {
			r.log.Warn("CompleteJob failed", "job_id", jobID, "error", err)
		}
	}
}

func (r *Runner) finishFail(jobID uuid.UUID, msg string) {
	if err := r.mgr.FailJob(jobID, msg); err != nil && !jobs.IsInvalidTransition(err) {
		r.log.Warn("FailJob failed", "job_id", jobID, "error", err)
	}
}

/*
RunWorkflow drives one workflow-type job end to end: per-step progress
reported against the definition's step count, abort on the first step error
(the executor's policy), job result = the execution's result.
*/
func (r *Runner) RunWorkflow(jobID uuid.UUID, def workflow.Definition, registry *agents.Registry, params map[string]any) {
	total := len(def.Steps)
	r.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		exec := r.executor.Execute(ctx, def, registry, params, func(n int, stepID, desc string) {
			_ = r.mgr.UpdateProgress(jobID, float64(n-1)/float64(total), desc, stepID)
		})
		if exec.Status != workflow.StatusCompleted {
			return nil, errors.New(exec.Error)
		}
		return exec.Result, nil
	})
}

/*
BatchItem is one independent attempt inside a batch job. Item failures are
data, not control flow: each outcome is recorded and the loop continues,
the opposite of the workflow executor's abort-on-first-error policy.
*/
type BatchItem struct {
	Name string
	Run  func(ctx context.Context) (map[string]any, error)
}

type batchOutcome struct {
	index  int
	name   string
	output map[string]any
	err    error
}

/*
RunBatch drives a batch job: items run with bounded concurrency, every
failure is caught and recorded individually, and the job completes with a
structured partial-success payload as long as at least one item succeeded.
Only a fully failed batch fails the job.
*/
func (r *Runner) RunBatch(jobID uuid.UUID, items []BatchItem) {
	r.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		outcomes := make([]batchOutcome, len(items))
		var mu sync.Mutex
		completed := 0

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.batchLimit)
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				out, err := runItem(gctx, item)
				mu.Lock()
				outcomes[i] = batchOutcome{index: i, name: item.Name, output: out, err: err}
				completed++
				done := completed
				mu.Unlock()
				_ = r.mgr.UpdateProgress(jobID, float64(done)/float64(len(items)),
					fmt.Sprintf("Processed %d/%d items", done, len(items)), "")
				return nil // item errors are aggregated, never abort the batch
			})
		}
		_ = g.Wait()

		sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].index < outcomes[b].index })
		succeeded := make([]any, 0, len(items))
		failed := make([]any, 0)
		for _, o := range outcomes {
			if o.err != nil {
				failed = append(failed, map[string]any{"item": o.index + 1, "name": o.name, "error": o.err.Error()})
				continue
			}
			succeeded = append(succeeded, map[string]any{"item": o.index + 1, "name": o.name, "output": o.output})
		}

		if len(items) > 0 && len(succeeded) == 0 {
			return nil, fmt.Errorf("all %d batch items failed", len(items))
		}
		return map[string]any{"succeeded": succeeded, "failed": failed}, nil
	})
}

// runItem isolates one attempt, converting panics into per-item errors so a
// single bad item cannot take down its siblings.
func runItem(ctx context.Context, item BatchItem) (out map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("item panic: %v", rec)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return item.Run(ctx)
}
