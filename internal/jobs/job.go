package jobs

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAnalyze              Type = "analyze"
	TypeGenerateImage        Type = "generate_image"
	TypeWorkflow             Type = "workflow"
	TypeBatchAnalyze         Type = "batch_analyze"
	TypeComprehensiveAnalyze Type = "comprehensive_analyze"
	TypeMerge                Type = "merge"
)

type Status string

const (
	StatusQueued        Status = "queued"
	StatusRunning       Status = "running"
	StatusAwaitingInput Status = "awaiting_input"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusCancelled     Status = "cancelled"
)

// Terminal reports whether no further transition out of this status is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

/*
BriefCard is the UI-facing description of a paused job's pending decision.
It is carried through unchanged; the job layer never interprets it.
*/
type BriefCard struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

/*
ResumeInput is the external decision that releases a job out of awaiting_input.
EditedData is only meaningful for action "edit".
*/
type ResumeInput struct {
	Action     string         `json:"action"`
	EditedData map[string]any `json:"edited_data,omitempty"`
}

// Resumption is what ResumeWithInput hands back to the continuation: the
// recorded decision plus the awaiting payload the job was paused on.
type Resumption struct {
	Input        ResumeInput    `json:"input"`
	AwaitingData map[string]any `json:"awaiting_data"`
	DecidedAt    time.Time      `json:"decided_at"`
}

/*
Job is one externally tracked unit of background work.

Field invariants the Manager maintains:
  - Progress is in [0,1], never decreases while running, and is forced to
    exactly 1.0 on completion.
  - Result is set exactly once, on the transition to completed.
  - Error is set exactly once, on the transition to failed.
  - AwaitingData is non-nil exactly while Status == awaiting_input.
  - ID, Type, Title, Description, Metadata and Cancelable never change
    after creation.

Only the Manager mutates a Job. Everything handed out of the Manager is a
deep snapshot, so readers can never observe a torn state.
*/
type Job struct {
	ID              uuid.UUID      `json:"id"`
	Type            Type           `json:"type"`
	Status          Status         `json:"status"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Progress        float64        `json:"progress"`
	CurrentStep     string         `json:"current_step,omitempty"`
	StepsTotal      int            `json:"steps_total"`
	StepsCompleted  int            `json:"steps_completed"`
	ProgressMessage string         `json:"progress_message,omitempty"`
	Result          map[string]any `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
	AwaitingData    map[string]any `json:"awaiting_data,omitempty"`
	BriefCard       *BriefCard     `json:"brief_card,omitempty"`
	Resumption      *Resumption    `json:"resumption,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Cancelable      bool           `json:"cancelable"`
	CreatedAt       time.Time      `json:"created_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// snapshot returns a deep copy safe to hand outside the Manager's lock.
func (j *Job) snapshot() *Job {
	cp := *j
	cp.Result = copyMap(j.Result)
	cp.AwaitingData = copyMap(j.AwaitingData)
	cp.Metadata = copyMap(j.Metadata)
	if j.BriefCard != nil {
		card := *j.BriefCard
		card.Actions = append([]string(nil), j.BriefCard.Actions...)
		cp.BriefCard = &card
	}
	if j.Resumption != nil {
		res := *j.Resumption
		res.AwaitingData = copyMap(j.Resumption.AwaitingData)
		res.Input.EditedData = copyMap(j.Resumption.Input.EditedData)
		cp.Resumption = &res
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// copyMap is shallow below the first level; values are treated as immutable
// once handed to the Manager.
func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
