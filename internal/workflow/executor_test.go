package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/logger"
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

func newRegistry(t *testing.T, stubs ...*stubAgent) *agents.Registry {
	t.Helper()
	r := agents.NewRegistry()
	for _, s := range stubs {
		if err := r.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.id, err)
		}
	}
	return r
}

func newExecutor() *SequentialExecutor {
	return NewSequentialExecutor(logger.NewNop())
}

func TestStepsRunInOrderAndThreadContext(t *testing.T) {
	var order []string
	reg := newRegistry(t,
		&stubAgent{id: "first", fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
			order = append(order, "first")
			if in["seed"] != "s" {
				t.Fatalf("step 1 input = %#v, want seed from params", in)
			}
			return map[string]any{"a": 1}, nil
		}},
		&stubAgent{id: "second", fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
			order = append(order, "second")
			if in["a"] != 1 {
				t.Fatalf("step 2 did not see step 1 output: %#v", in)
			}
			return map[string]any{"b": 2}, nil
		}},
	)
	def := Definition{ID: "wf", Steps: []Step{
		{StepID: "s1", AgentID: "first", Inputs: []string{"seed"}, Outputs: []string{"a"}},
		{StepID: "s2", AgentID: "second", Inputs: []string{"a"}, Outputs: []string{"b"}},
	}}

	var progressed []string
	exec := newExecutor().Execute(context.Background(), def, reg, map[string]any{"seed": "s"}, func(n int, id, _ string) {
		progressed = append(progressed, fmt.Sprintf("%d:%s", n, id))
	})

	if exec.Status != StatusCompleted {
		t.Fatalf("status = %q (%s), want completed", exec.Status, exec.Error)
	}
	if strings.Join(order, ",") != "first,second" {
		t.Fatalf("agent order = %v", order)
	}
	if strings.Join(progressed, ",") != "1:s1,2:s2" {
		t.Fatalf("progress callbacks = %v", progressed)
	}
	if exec.Result["b"] != 2 {
		t.Fatalf("result = %#v, want last step's declared outputs", exec.Result)
	}
	if _, ok := exec.Result["a"]; ok {
		t.Fatalf("result leaked earlier outputs: %#v", exec.Result)
	}
}

func TestFailureAtStepTwoAbortsStepThree(t *testing.T) {
	boom := errors.New("provider exploded")
	var thirdRan bool
	reg := newRegistry(t,
		&stubAgent{id: "one", fn: func(context.Context, map[string]any) (map[string]any, error) {
			return map[string]any{"first_out": "x"}, nil
		}},
		&stubAgent{id: "two", fn: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, boom
		}},
		&stubAgent{id: "three", fn: func(context.Context, map[string]any) (map[string]any, error) {
			thirdRan = true
			return map[string]any{"third_out": "z"}, nil
		}},
	)
	def := Definition{ID: "wf", Steps: []Step{
		{StepID: "s1", AgentID: "one", Outputs: []string{"first_out"}},
		{StepID: "s2", AgentID: "two", Outputs: []string{"second_out"}},
		{StepID: "s3", AgentID: "three", Outputs: []string{"third_out"}},
	}}

	exec := newExecutor().Execute(context.Background(), def, reg, nil, nil)

	if exec.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", exec.Status)
	}
	if exec.Error == "" || !strings.Contains(exec.Error, "s2") {
		t.Fatalf("error %q should name the failing step", exec.Error)
	}
	if thirdRan {
		t.Fatal("step 3 ran after step 2 failed")
	}
	if exec.Context["first_out"] != "x" {
		t.Fatalf("context lost step 1 output: %#v", exec.Context)
	}
	if _, ok := exec.Context["third_out"]; ok {
		t.Fatalf("context contains step 3 output: %#v", exec.Context)
	}
	if exec.Result != nil {
		t.Fatalf("failed execution must not carry a result: %#v", exec.Result)
	}
}

func TestMissingAgentFailsExecution(t *testing.T) {
	def := Definition{ID: "wf", Steps: []Step{{StepID: "s1", AgentID: "ghost", Outputs: []string{"x"}}}}
	exec := newExecutor().Execute(context.Background(), def, newRegistry(t), nil, nil)
	if exec.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", exec.Status)
	}
	if !strings.Contains(exec.Error, "ghost") {
		t.Fatalf("error %q should name the missing agent", exec.Error)
	}
}

func TestAbsentInputKeysAreOmittedNotFatal(t *testing.T) {
	reg := newRegistry(t, &stubAgent{id: "a", fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
		if _, ok := in["not_there"]; ok {
			t.Fatalf("absent key materialized in step input: %#v", in)
		}
		return map[string]any{"out": true}, nil
	}})
	def := Definition{ID: "wf", Steps: []Step{
		{StepID: "s1", AgentID: "a", Inputs: []string{"not_there"}, Outputs: []string{"out"}},
	}}
	exec := newExecutor().Execute(context.Background(), def, reg, nil, nil)
	if exec.Status != StatusCompleted {
		t.Fatalf("status = %q (%s), want completed", exec.Status, exec.Error)
	}
}

func TestAutoBindingWholeResultForSingleOutput(t *testing.T) {
	reg := newRegistry(t, &stubAgent{id: "outliner", fn: func(context.Context, map[string]any) (map[string]any, error) {
		return map[string]any{"title": "X", "scenes": []any{}}, nil
	}})
	def := Definition{ID: "wf", Steps: []Step{
		{StepID: "s1", AgentID: "outliner", Outputs: []string{"outline"}},
	}}
	exec := newExecutor().Execute(context.Background(), def, reg, nil, nil)
	if exec.Status != StatusCompleted {
		t.Fatalf("status = %q (%s)", exec.Status, exec.Error)
	}
	bound, ok := exec.Context["outline"].(map[string]any)
	if !ok {
		t.Fatalf("outline = %#v, want the entire result object", exec.Context["outline"])
	}
	if bound["title"] != "X" {
		t.Fatalf("whole-result binding lost fields: %#v", bound)
	}
}

func TestAutoBindingSuffixMatch(t *testing.T) {
	inner := map[string]any{"title": "X", "content": "..."}
	reg := newRegistry(t, &stubAgent{id: "writer", fn: func(context.Context, map[string]any) (map[string]any, error) {
		return map[string]any{"generated_written_story": inner}, nil
	}})
	def := Definition{ID: "wf", Steps: []Step{
		{StepID: "s1", AgentID: "writer", Outputs: []string{"written_story"}},
	}}
	exec := newExecutor().Execute(context.Background(), def, reg, nil, nil)
	if exec.Status != StatusCompleted {
		t.Fatalf("status = %q (%s)", exec.Status, exec.Error)
	}
	bound, ok := exec.Context["written_story"].(map[string]any)
	if !ok {
		t.Fatalf("written_story = %#v, want suffix-matched inner value", exec.Context["written_story"])
	}
	if bound["title"] != "X" {
		t.Fatalf("suffix binding bound wrong value: %#v", bound)
	}
}

func TestExplicitBindingsOverrideAuto(t *testing.T) {
	reg := newRegistry(t, &stubAgent{id: "a", fn: func(context.Context, map[string]any) (map[string]any, error) {
		return map[string]any{"inner_palette": []any{"#fff"}, "noise": 1}, nil
	}})
	def := Definition{ID: "wf", Steps: []Step{{
		StepID:   "s1",
		AgentID:  "a",
		Outputs:  []string{"palette"},
		Bindings: map[string]Binding{"palette": {Kind: BindFrom, From: "inner_palette"}},
	}}}
	exec := newExecutor().Execute(context.Background(), def, reg, nil, nil)
	if exec.Status != StatusCompleted {
		t.Fatalf("status = %q (%s)", exec.Status, exec.Error)
	}
	if _, ok := exec.Context["palette"].([]any); !ok {
		t.Fatalf("palette = %#v, want the renamed source value", exec.Context["palette"])
	}
}

func TestCancelledContextStopsBetweenSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var secondRan bool
	reg := newRegistry(t,
		&stubAgent{id: "one", fn: func(context.Context, map[string]any) (map[string]any, error) {
			cancel() // cancellation lands while step 1 is in flight
			return map[string]any{"a": 1}, nil
		}},
		&stubAgent{id: "two", fn: func(context.Context, map[string]any) (map[string]any, error) {
			secondRan = true
			return map[string]any{"b": 2}, nil
		}},
	)
	def := Definition{ID: "wf", Steps: []Step{
		{StepID: "s1", AgentID: "one", Outputs: []string{"a"}},
		{StepID: "s2", AgentID: "two", Outputs: []string{"b"}},
	}}
	exec := newExecutor().Execute(ctx, def, reg, nil, nil)
	if exec.Status != StatusFailed {
		t.Fatalf("status = %q, want failed after cancellation", exec.Status)
	}
	if secondRan {
		t.Fatal("step 2 ran after cancellation")
	}
}
