package agents

import (
	"context"
	"fmt"

	"github.com/inkfall/studio-backend/internal/clients/genai"
)

// StoryWriter expands an approved outline into full prose.
type StoryWriter struct {
	text genai.TextClient
}

func NewStoryWriter(text genai.TextClient) *StoryWriter {
	return &StoryWriter{text: text}
}

func (a *StoryWriter) ID() string { return "story_writer" }

func (a *StoryWriter) Info() Info {
	return Info{ID: a.ID(), Name: "Story Writer", EstimatedSeconds: 60, EstimatedCostUSD: 0.08}
}

func (a *StoryWriter) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "outline"); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Write the full story from this outline. Return a JSON object with a "+
			"single key generated_written_story: {title, content}.\n\nOutline: %v",
		input["outline"],
	)
	return a.text.CompleteJSON(ctx, "You are a fiction writer.", prompt, &genai.TextOptions{MaxTokens: 4096})
}
