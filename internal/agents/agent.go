package agents

import (
	"context"

	"github.com/inkfall/studio-backend/internal/jobs"
)

/*
Info is static agent metadata surfaced to the UI for estimation. It is never
used for scheduling decisions.
*/
type Info struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	EstimatedSeconds int     `json:"estimated_seconds"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

/*
Agent is a stateless capability unit: one Execute call in, one result map out.
Agents know nothing about job ids or progress reporting; the job layer wraps
them. Execute must respect ctx cancellation on every provider call and must
not share mutable state across calls.
*/
type Agent interface {
	ID() string
	Info() Info
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

/*
ValidateRequired fails fast with every missing required field listed, not just
the first, so callers can fix their input in a single round trip. A field
present with a nil value counts as missing.
*/
func ValidateRequired(input map[string]any, fields ...string) error {
	var missing []string
	for _, f := range fields {
		v, ok := input[f]
		if !ok || v == nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &jobs.ValidationError{Missing: missing}
	}
	return nil
}

// stringInput reads a string field out of an agent input map, tolerating
// absent keys and non-string values.
func stringInput(input map[string]any, key string) string {
	if v, ok := input[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// mapInput reads a nested object field out of an agent input map.
func mapInput(input map[string]any, key string) map[string]any {
	if v, ok := input[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}
