package workflow

/*
Built-in workflow definitions. Story generation is split into two
definitions on purpose: the outline segment runs first, the job pauses for
outline approval, and the writing segment runs as the resume continuation.
*/

// StoryOutlineDefinition produces the outline proposal that a human reviews.
func StoryOutlineDefinition() Definition {
	return Definition{
		ID:   "story_outline",
		Name: "Story Outline",
		Steps: []Step{
			{
				StepID:      "outline",
				AgentID:     "story_outliner",
				Description: "Outlining the story",
				Inputs:      []string{"premise", "characters"},
				// The outliner returns {title, logline, scenes}; the whole
				// object binds to "outline".
				Outputs: []string{"outline"},
			},
		},
	}
}

// StoryWriteDefinition runs after the outline is approved or edited.
func StoryWriteDefinition() Definition {
	return Definition{
		ID:   "story_write",
		Name: "Story Writing",
		Steps: []Step{
			{
				StepID:      "write",
				AgentID:     "story_writer",
				Description: "Writing the story",
				Inputs:      []string{"outline"},
				Outputs:     []string{"written_story"},
			},
			{
				StepID:      "cover",
				AgentID:     "scene_illustrator",
				Description: "Illustrating the cover",
				Inputs:      []string{"prompt"},
				Outputs:     []string{"cover"},
				Bindings:    map[string]Binding{"cover": {Kind: BindWhole}},
			},
		},
	}
}

// ComprehensiveAnalyzeDefinition chains the three character analysis agents.
func ComprehensiveAnalyzeDefinition() Definition {
	return Definition{
		ID:   "comprehensive_analyze",
		Name: "Comprehensive Character Analysis",
		Steps: []Step{
			{
				StepID:      "profile",
				AgentID:     "character_analyst",
				Description: "Analyzing personality and appearance",
				Inputs:      []string{"name", "description"},
				Outputs:     []string{"profile"},
			},
			{
				StepID:      "style",
				AgentID:     "style_analyst",
				Description: "Deriving the visual style brief",
				Inputs:      []string{"profile"},
				Outputs:     []string{"style"},
			},
			{
				StepID:      "palette",
				AgentID:     "palette_extractor",
				Description: "Extracting the color palette",
				Inputs:      []string{"style"},
				Outputs:     []string{"palette"},
			},
		},
	}
}
