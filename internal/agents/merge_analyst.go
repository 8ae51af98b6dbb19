package agents

import (
	"context"
	"fmt"

	"github.com/inkfall/studio-backend/internal/clients/genai"
)

/*
MergeAnalyst proposes how two entities should merge into one. It only
produces the proposal; committing the merge is a separate, human-approved
continuation.
*/
type MergeAnalyst struct {
	text genai.TextClient
}

func NewMergeAnalyst(text genai.TextClient) *MergeAnalyst {
	return &MergeAnalyst{text: text}
}

func (a *MergeAnalyst) ID() string { return "merge_analyst" }

func (a *MergeAnalyst) Info() Info {
	return Info{ID: a.ID(), Name: "Merge Analyst", EstimatedSeconds: 15, EstimatedCostUSD: 0.01}
}

func (a *MergeAnalyst) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "source", "target"); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Two %s records describe the same entity. Propose a single merged "+
			"record keeping the richer value per field. Return a JSON object with keys "+
			"merged_data (object with name, description, traits), confidence (0..1) "+
			"and rationale (string).\n\nSource: %v\nTarget: %v",
		stringInput(input, "entity_type"),
		mapInput(input, "source"),
		mapInput(input, "target"),
	)
	out, err := a.text.CompleteJSON(ctx, "You are a careful data steward.", prompt, nil)
	if err != nil {
		return nil, err
	}
	if _, ok := out["merged_data"]; !ok {
		return nil, fmt.Errorf("merge analyst returned no merged_data")
	}
	return out, nil
}
