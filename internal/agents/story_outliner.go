package agents

import (
	"context"
	"fmt"

	"github.com/inkfall/studio-backend/internal/clients/genai"
)

/*
StoryOutliner turns a premise and a cast into a scene-by-scene outline.
The result object carries title/logline/scenes keys; the workflow binds the
whole object to the step's declared output.
*/
type StoryOutliner struct {
	text genai.TextClient
}

func NewStoryOutliner(text genai.TextClient) *StoryOutliner {
	return &StoryOutliner{text: text}
}

func (a *StoryOutliner) ID() string { return "story_outliner" }

func (a *StoryOutliner) Info() Info {
	return Info{ID: a.ID(), Name: "Story Outliner", EstimatedSeconds: 20, EstimatedCostUSD: 0.02}
}

func (a *StoryOutliner) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "premise"); err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Outline a short story. Return a JSON object with keys title (string), "+
			"logline (string) and scenes (list of {heading, summary}).\n\n"+
			"Premise: %s\nCharacters: %v",
		stringInput(input, "premise"), input["characters"],
	)
	return a.text.CompleteJSON(ctx, "You are a story editor.", prompt, nil)
}
