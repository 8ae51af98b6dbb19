package agents

import (
	"context"
	"encoding/base64"

	"github.com/inkfall/studio-backend/internal/media"
)

// VisualizationRenderer renders a preview card for a visualization config
// using the in-process compositor. No provider call involved.
type VisualizationRenderer struct {
	comp *media.Compositor
}

func NewVisualizationRenderer(comp *media.Compositor) *VisualizationRenderer {
	return &VisualizationRenderer{comp: comp}
}

func (a *VisualizationRenderer) ID() string { return "visualization_renderer" }

func (a *VisualizationRenderer) Info() Info {
	return Info{ID: a.ID(), Name: "Visualization Renderer", EstimatedSeconds: 2, EstimatedCostUSD: 0}
}

func (a *VisualizationRenderer) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "title"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spec := media.CardSpec{
		Title:      stringInput(input, "title"),
		Subtitle:   stringInput(input, "subtitle"),
		Layout:     stringInput(input, "layout"),
		Background: stringInput(input, "background"),
		Accent:     stringInput(input, "accent"),
	}
	if raw, ok := input["palette"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				spec.Palette = append(spec.Palette, s)
			}
		}
	}

	png, err := a.comp.RenderCard(spec)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"preview_png_base64": base64.StdEncoding.EncodeToString(png),
		"content_type":       "image/png",
	}, nil
}
