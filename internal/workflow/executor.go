package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/logger"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

/*
AgentExecutionError wraps an agent failure with the originating agent and
step ids so the job error message can say exactly where a workflow died.
*/
type AgentExecutionError struct {
	AgentID string
	StepID  string
	Err     error
}

func (e *AgentExecutionError) Error() string {
	return fmt.Sprintf("agent %q failed at step %q: %v", e.AgentID, e.StepID, e.Err)
}

func (e *AgentExecutionError) Unwrap() error { return e.Err }

/*
Execution is the ephemeral record of one run. Context holds everything
written so far; on failure it keeps the outputs of the steps that did
complete, which is what makes failures debuggable.
*/
type Execution struct {
	Status  Status
	Context map[string]any
	Result  map[string]any
	Error   string
}

// ProgressFunc is invoked before each step with the 1-based step number.
type ProgressFunc func(stepNum int, stepID, description string)

/*
SequentialExecutor runs a Definition against a registry of agents, threading
one shared mutable context map between steps.

Guarantees:
  - Steps run strictly in declaration order; step N+1 never starts before
    step N's agent call returns.
  - Any step error aborts the whole execution; no further steps run, no
    partial result is produced, but the context keeps what completed steps
    wrote.
  - Input keys absent from the context are omitted from the step input, not
    treated as an error. Agents validate their own required fields.
*/
type SequentialExecutor struct {
	log *logger.Logger
}

func NewSequentialExecutor(baseLog *logger.Logger) *SequentialExecutor {
	return &SequentialExecutor{log: baseLog.With("component", "SequentialExecutor")}
}

func (e *SequentialExecutor) Execute(
	ctx context.Context,
	def Definition,
	registry *agents.Registry,
	params map[string]any,
	onStep ProgressFunc,
) *Execution {
	execCtx := make(map[string]any, len(params))
	for k, v := range params {
		execCtx[k] = v
	}
	exec := &Execution{Context: execCtx}

	for i, step := range def.Steps {
		if err := ctx.Err(); err != nil {
			return e.fail(exec, def, step, fmt.Errorf("workflow aborted: %w", err))
		}
		if onStep != nil {
			onStep(i+1, step.StepID, step.Description)
		}

		agent, ok := registry.Get(step.AgentID)
		if !ok {
			return e.fail(exec, def, step, fmt.Errorf("no agent registered for id=%q (step %q)", step.AgentID, step.StepID))
		}

		stepInput := make(map[string]any, len(step.Inputs))
		for _, key := range step.Inputs {
			if v, ok := execCtx[key]; ok {
				stepInput[key] = v
			}
		}

		out, err := agent.Execute(ctx, stepInput)
		if err != nil {
			return e.fail(exec, def, step, &AgentExecutionError{AgentID: step.AgentID, StepID: step.StepID, Err: err})
		}
		bindOutputs(execCtx, step, out)
	}

	exec.Status = StatusCompleted
	if n := len(def.Steps); n > 0 {
		last := def.Steps[n-1]
		exec.Result = make(map[string]any, len(last.Outputs))
		for _, key := range last.Outputs {
			if v, ok := execCtx[key]; ok {
				exec.Result[key] = v
			}
		}
	} else {
		exec.Result = map[string]any{}
	}
	return exec
}

func (e *SequentialExecutor) fail(exec *Execution, def Definition, step Step, err error) *Execution {
	e.log.Warn("Workflow execution failed", "workflow", def.ID, "step", step.StepID, "error", err)
	exec.Status = StatusFailed
	exec.Error = err.Error()
	return exec
}

/*
bindOutputs writes a step's declared outputs into the shared context.

For BindAuto the precedence is: exact result key; then a result key that
ends with the declared output key (first match wins, map order); then, when
the step declares exactly one output and the result is non-empty, the whole
result object.
*/
func bindOutputs(execCtx map[string]any, step Step, result map[string]any) {
	for _, key := range step.Outputs {
		binding := step.Bindings[key]
		switch binding.Kind {
		case BindWhole:
			execCtx[key] = result
		case BindFrom:
			if v, ok := result[binding.From]; ok {
				execCtx[key] = v
			}
		default:
			if v, ok := bindAuto(key, step, result); ok {
				execCtx[key] = v
			}
		}
	}
}

func bindAuto(key string, step Step, result map[string]any) (any, bool) {
	if v, ok := result[key]; ok {
		return v, true
	}
	for k, v := range result {
		if strings.HasSuffix(k, key) {
			return v, true
		}
	}
	if len(step.Outputs) == 1 && len(result) > 0 {
		return result, true
	}
	return nil, false
}
