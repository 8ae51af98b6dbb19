package agents

import (
	"context"
	"fmt"

	"github.com/inkfall/studio-backend/internal/clients/genai"
)

// OutfitDesigner proposes an itemized outfit for a character, optionally
// constrained by an occasion and a color palette.
type OutfitDesigner struct {
	text genai.TextClient
}

func NewOutfitDesigner(text genai.TextClient) *OutfitDesigner {
	return &OutfitDesigner{text: text}
}

func (a *OutfitDesigner) ID() string { return "outfit_designer" }

func (a *OutfitDesigner) Info() Info {
	return Info{ID: a.ID(), Name: "Outfit Designer", EstimatedSeconds: 12, EstimatedCostUSD: 0.01}
}

func (a *OutfitDesigner) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "character_name", "character_description"); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Design an outfit for this character. Return a JSON object with keys "+
			"name (string), description (string) and pieces (list of {item, color, material}).\n\n"+
			"Character: %s\nDescription: %s\nOccasion: %s\nPalette: %v",
		stringInput(input, "character_name"),
		stringInput(input, "character_description"),
		stringInput(input, "occasion"),
		input["palette"],
	)
	outfit, err := a.text.CompleteJSON(ctx, "You are a costume designer.", prompt, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"outfit": outfit}, nil
}
