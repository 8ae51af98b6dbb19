package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/workflow"
)

type stubAgent struct {
	id string
	fn func(ctx context.Context, input map[string]any) (map[string]any, error)
}

func (s *stubAgent) ID() string        { return s.id }
func (s *stubAgent) Info() agents.Info { return agents.Info{ID: s.id, Name: s.id} }
func (s *stubAgent) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	return s.fn(ctx, input)
}

func newHarness(t *testing.T, stubs ...*stubAgent) (*jobs.Manager, *Runner, *agents.Registry) {
	t.Helper()
	log := logger.NewNop()
	mgr := jobs.NewManager(log, nil)
	registry := agents.NewRegistry()
	for _, s := range stubs {
		if err := registry.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.id, err)
		}
	}
	runner := NewRunner(log, mgr, workflow.NewSequentialExecutor(log), 2)
	return mgr, runner, registry
}

func TestRunWorkflowDrivesJobToCompletion(t *testing.T) {
	mgr, runner, registry := newHarness(t,
		&stubAgent{id: "a", fn: func(context.Context, map[string]any) (map[string]any, error) {
			return map[string]any{"x": 1}, nil
		}},
		&stubAgent{id: "b", fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
			if in["x"] != 1 {
				return nil, fmt.Errorf("step 2 missing step 1 output")
			}
			return map[string]any{"y": 2}, nil
		}},
	)
	def := workflow.Definition{ID: "wf", Steps: []workflow.Step{
		{StepID: "s1", AgentID: "a", Outputs: []string{"x"}},
		{StepID: "s2", AgentID: "b", Inputs: []string{"x"}, Outputs: []string{"y"}},
	}}

	jobID := mgr.CreateJob(jobs.CreateParams{Type: jobs.TypeWorkflow, Title: "wf", StepsTotal: 2, Cancelable: true})
	runner.RunWorkflow(jobID, def, registry, nil)
	runner.Wait()

	job, err := mgr.GetJob(jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q (%s), want completed", job.Status, job.Error)
	}
	if job.Result["y"] != 2 {
		t.Fatalf("result = %#v", job.Result)
	}
	if job.Progress != 1.0 {
		t.Fatalf("progress = %v, want 1.0", job.Progress)
	}
}

func TestRunWorkflowStepFailureFailsJob(t *testing.T) {
	mgr, runner, registry := newHarness(t,
		&stubAgent{id: "a", fn: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, fmt.Errorf("provider down")
		}},
	)
	def := workflow.Definition{ID: "wf", Steps: []workflow.Step{
		{StepID: "s1", AgentID: "a", Outputs: []string{"x"}},
	}}

	jobID := mgr.CreateJob(jobs.CreateParams{Type: jobs.TypeWorkflow, Title: "wf", Cancelable: true})
	runner.RunWorkflow(jobID, def, registry, nil)
	runner.Wait()

	job, _ := mgr.GetJob(jobID)
	if job.Status != jobs.StatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if job.Error == "" {
		t.Fatal("failed job carries no error message")
	}
	if job.Result != nil {
		t.Fatalf("failed job carries a result: %#v", job.Result)
	}
}

func TestRunBatchCollectsFailuresAndContinues(t *testing.T) {
	mgr, runner, _ := newHarness(t)

	items := make([]BatchItem, 5)
	for i := 0; i < 5; i++ {
		n := i + 1
		items[i] = BatchItem{
			Name: fmt.Sprintf("item-%d", n),
			Run: func(context.Context) (map[string]any, error) {
				if n == 2 || n == 4 {
					return nil, fmt.Errorf("item %d exploded", n)
				}
				return map[string]any{"value": n}, nil
			},
		}
	}

	jobID := mgr.CreateJob(jobs.CreateParams{Type: jobs.TypeBatchAnalyze, Title: "batch", StepsTotal: 5, Cancelable: true})
	runner.RunBatch(jobID, items)
	runner.Wait()

	job, _ := mgr.GetJob(jobID)
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q (%s), want completed despite partial failures", job.Status, job.Error)
	}
	succeeded, _ := job.Result["succeeded"].([]any)
	failed, _ := job.Result["failed"].([]any)
	if len(succeeded) != 3 {
		t.Fatalf("succeeded = %d entries, want 3", len(succeeded))
	}
	if len(failed) != 2 {
		t.Fatalf("failed = %d entries, want 2", len(failed))
	}
	wantFailed := map[int]bool{2: true, 4: true}
	for _, f := range failed {
		entry, ok := f.(map[string]any)
		if !ok {
			t.Fatalf("failed entry shape: %#v", f)
		}
		item, _ := entry["item"].(int)
		if !wantFailed[item] {
			t.Fatalf("unexpected failed item %v", entry["item"])
		}
		if msg, _ := entry["error"].(string); msg == "" {
			t.Fatalf("failed entry has no error: %#v", entry)
		}
	}
	if job.Progress != 1.0 {
		t.Fatalf("progress = %v, want 1.0", job.Progress)
	}
}

func TestRunBatchAllItemsFailedFailsJob(t *testing.T) {
	mgr, runner, _ := newHarness(t)
	items := []BatchItem{
		{Name: "a", Run: func(context.Context) (map[string]any, error) { return nil, fmt.Errorf("no") }},
		{Name: "b", Run: func(context.Context) (map[string]any, error) { return nil, fmt.Errorf("also no") }},
	}

	jobID := mgr.CreateJob(jobs.CreateParams{Type: jobs.TypeBatchAnalyze, Title: "batch", StepsTotal: 2, Cancelable: true})
	runner.RunBatch(jobID, items)
	runner.Wait()

	job, _ := mgr.GetJob(jobID)
	if job.Status != jobs.StatusFailed {
		t.Fatalf("status = %q, want failed when every item fails", job.Status)
	}
}

func TestRunBatchItemPanicBecomesItemFailure(t *testing.T) {
	mgr, runner, _ := newHarness(t)
	items := []BatchItem{
		{Name: "ok", Run: func(context.Context) (map[string]any, error) { return map[string]any{}, nil }},
		{Name: "boom", Run: func(context.Context) (map[string]any, error) { panic("kaboom") }},
	}

	jobID := mgr.CreateJob(jobs.CreateParams{Type: jobs.TypeBatchAnalyze, Title: "batch", StepsTotal: 2, Cancelable: true})
	runner.RunBatch(jobID, items)
	runner.Wait()

	job, _ := mgr.GetJob(jobID)
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q (%s), want completed", job.Status, job.Error)
	}
	failed, _ := job.Result["failed"].([]any)
	if len(failed) != 1 {
		t.Fatalf("failed = %#v, want the panicking item only", job.Result["failed"])
	}
}

func TestBodyPanicFailsJob(t *testing.T) {
	mgr, runner, _ := newHarness(t)
	jobID := mgr.CreateJob(jobs.CreateParams{Type: jobs.TypeAnalyze, Title: "panicky", Cancelable: true})
	runner.Go(jobID, func(context.Context) (map[string]any, error) {
		panic("unexpected state")
	})
	runner.Wait()

	job, _ := mgr.GetJob(jobID)
	if job.Status != jobs.StatusFailed {
		t.Fatalf("status = %q, want failed after panic", job.Status)
	}
	if job.Error == "" {
		t.Fatal("panic left no error message")
	}
}

func TestPausedBodyThenContinueCompletes(t *testing.T) {
	mgr, runner, _ := newHarness(t)
	jobID := mgr.CreateJob(jobs.CreateParams{Type: jobs.TypeMerge, Title: "gated", StepsTotal: 2, Cancelable: true})

	runner.Go(jobID, func(context.Context) (map[string]any, error) {
		if err := mgr.PauseForInput(jobID, map[string]any{"proposal": "p"}, nil); err != nil {
			return nil, err
		}
		return nil, ErrJobPaused
	})
	runner.Wait()

	job, _ := mgr.GetJob(jobID)
	if job.Status != jobs.StatusAwaitingInput {
		t.Fatalf("status = %q, want awaiting_input", job.Status)
	}

	res, err := mgr.ResumeWithInput(jobID, jobs.ResumeInput{Action: "approve"})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.AwaitingData["proposal"] != "p" {
		t.Fatalf("resumption lost the awaiting payload: %#v", res.AwaitingData)
	}
	runner.Continue(jobID, func(context.Context) (map[string]any, error) {
		return map[string]any{"done": true}, nil
	})
	runner.Wait()

	job, _ = mgr.GetJob(jobID)
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q (%s), want completed", job.Status, job.Error)
	}
	if job.Result["done"] != true {
		t.Fatalf("result = %#v", job.Result)
	}
}

func TestGoOnCancelledQueuedJobIsNoop(t *testing.T) {
	mgr, runner, _ := newHarness(t)
	jobID := mgr.CreateJob(jobs.CreateParams{Type: jobs.TypeAnalyze, Title: "doomed", Cancelable: true})
	if err := mgr.CancelJob(jobID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var ran bool
	runner.Go(jobID, func(context.Context) (map[string]any, error) {
		ran = true
		return nil, nil
	})
	runner.Wait()

	if ran {
		t.Fatal("body ran for a job cancelled while queued")
	}
	job, _ := mgr.GetJob(jobID)
	if job.Status != jobs.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", job.Status)
	}
}
