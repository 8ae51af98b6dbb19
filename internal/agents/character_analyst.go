package agents

import (
	"context"
	"fmt"

	"github.com/inkfall/studio-backend/internal/clients/genai"
)

/*
CharacterAnalyst derives a structured personality/appearance profile from a
character's name and freeform description.
*/
type CharacterAnalyst struct {
	text genai.TextClient
}

func NewCharacterAnalyst(text genai.TextClient) *CharacterAnalyst {
	return &CharacterAnalyst{text: text}
}

func (a *CharacterAnalyst) ID() string { return "character_analyst" }

func (a *CharacterAnalyst) Info() Info {
	return Info{ID: a.ID(), Name: "Character Analyst", EstimatedSeconds: 15, EstimatedCostUSD: 0.01}
}

func (a *CharacterAnalyst) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "name", "description"); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Analyze the following character and return a JSON object with keys "+
			"personality (string), appearance (string), archetype (string), "+
			"strengths (list of strings) and flaws (list of strings).\n\nName: %s\nDescription: %s",
		stringInput(input, "name"), stringInput(input, "description"),
	)
	profile, err := a.text.CompleteJSON(ctx, "You are a character designer for a content studio.", prompt, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"profile": profile}, nil
}
