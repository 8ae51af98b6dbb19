package jobs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned for any operation on an unknown job id.
var ErrNotFound = errors.New("job not found")

/*
InvalidTransitionError reports an operation attempted from a status that does
not permit it (e.g. UpdateProgress on a completed job, ResumeWithInput on a
job that is not awaiting input). The attempted operation never mutates the job.
*/
type InvalidTransitionError struct {
	JobID uuid.UUID
	From  Status
	Op    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("job %s: cannot %s from status %q", e.JobID, e.Op, e.From)
}

// IsInvalidTransition reports whether err wraps an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}

/*
ValidationError carries the complete list of missing required input fields,
not just the first one, so a caller can fix everything in one round trip.
*/
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}
