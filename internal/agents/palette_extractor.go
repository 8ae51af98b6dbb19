package agents

import (
	"context"
	"fmt"

	"github.com/inkfall/studio-backend/internal/clients/genai"
)

// PaletteExtractor proposes a small hex color palette matching a style brief.
type PaletteExtractor struct {
	text genai.TextClient
}

func NewPaletteExtractor(text genai.TextClient) *PaletteExtractor {
	return &PaletteExtractor{text: text}
}

func (a *PaletteExtractor) ID() string { return "palette_extractor" }

func (a *PaletteExtractor) Info() Info {
	return Info{ID: a.ID(), Name: "Palette Extractor", EstimatedSeconds: 8, EstimatedCostUSD: 0.005}
}

func (a *PaletteExtractor) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "style"); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Given this style brief, return a JSON object with a single key "+
			"palette: a list of 5 hex color strings, dominant color first.\n\nStyle: %v",
		mapInput(input, "style"),
	)
	out, err := a.text.CompleteJSON(ctx, "You are a color specialist.", prompt, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"palette": out["palette"]}, nil
}
