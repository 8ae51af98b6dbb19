package agents

import (
	"context"
	"fmt"

	"github.com/inkfall/studio-backend/internal/clients/genai"
)

// StyleAnalyst turns a character profile into a visual style brief used by
// downstream image prompts.
type StyleAnalyst struct {
	text genai.TextClient
}

func NewStyleAnalyst(text genai.TextClient) *StyleAnalyst {
	return &StyleAnalyst{text: text}
}

func (a *StyleAnalyst) ID() string { return "style_analyst" }

func (a *StyleAnalyst) Info() Info {
	return Info{ID: a.ID(), Name: "Style Analyst", EstimatedSeconds: 10, EstimatedCostUSD: 0.01}
}

func (a *StyleAnalyst) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "profile"); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Given this character profile, return a JSON object with keys "+
			"art_style (string), mood (string), lighting (string) and "+
			"wardrobe_notes (string).\n\nProfile: %v",
		mapInput(input, "profile"),
	)
	style, err := a.text.CompleteJSON(ctx, "You are an art director.", prompt, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"style": style}, nil
}
