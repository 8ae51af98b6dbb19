package agents

import (
	"context"
	"fmt"

	"github.com/inkfall/studio-backend/internal/clients/genai"
)

// SceneIllustrator generates one illustration from a prompt, typically a
// story cover or a character portrait.
type SceneIllustrator struct {
	image genai.ImageClient
}

func NewSceneIllustrator(image genai.ImageClient) *SceneIllustrator {
	return &SceneIllustrator{image: image}
}

func (a *SceneIllustrator) ID() string { return "scene_illustrator" }

func (a *SceneIllustrator) Info() Info {
	return Info{ID: a.ID(), Name: "Scene Illustrator", EstimatedSeconds: 45, EstimatedCostUSD: 0.04}
}

func (a *SceneIllustrator) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "prompt"); err != nil {
		return nil, err
	}
	size := stringInput(input, "size")
	if size == "" {
		size = "1024x1024"
	}
	img, err := a.image.Generate(ctx, stringInput(input, "prompt"), size)
	if err != nil {
		return nil, fmt.Errorf("illustration failed: %w", err)
	}
	return map[string]any{
		"image_url":      img.URL,
		"image_b64":      img.B64,
		"revised_prompt": img.RevisedPrompt,
	}, nil
}
