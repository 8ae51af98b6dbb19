package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/inkfall/studio-backend/internal/jobs"
)

func TestValidateRequiredListsEveryMissingField(t *testing.T) {
	err := ValidateRequired(map[string]any{"name": "Ada", "nil_field": nil}, "name", "description", "nil_field", "premise")
	if err == nil {
		t.Fatal("expected validation error")
	}
	var ve *jobs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %T, want *jobs.ValidationError", err)
	}
	want := map[string]bool{"description": true, "nil_field": true, "premise": true}
	if len(ve.Missing) != len(want) {
		t.Fatalf("missing = %v, want all of %v", ve.Missing, want)
	}
	for _, f := range ve.Missing {
		if !want[f] {
			t.Fatalf("unexpected missing field %q in %v", f, ve.Missing)
		}
	}
}

func TestValidateRequiredPasses(t *testing.T) {
	if err := ValidateRequired(map[string]any{"a": 1, "b": "x"}, "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type fakeAgent struct{ id string }

func (f *fakeAgent) ID() string { return f.id }
func (f *fakeAgent) Info() Info { return Info{ID: f.id, Name: f.id} }
func (f *fakeAgent) Execute(context.Context, map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeAgent{id: "a"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&fakeAgent{id: "a"}); err == nil {
		t.Fatal("duplicate register should fail")
	}
	if _, ok := r.Get("a"); !ok {
		t.Fatal("registered agent not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("unknown agent should not be found")
	}
}
