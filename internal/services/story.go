package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/repos"
	"github.com/inkfall/studio-backend/internal/types"
	"github.com/inkfall/studio-backend/internal/workflow"
)

/*
StoryService generates stories in two workflow segments with a human gate in
between. The outline segment runs first and pauses the job on its proposal;
only an approved (or edited) outline feeds the writing segment, which
produces the prose and cover and persists the Story row.
*/
type StoryService interface {
	StartGeneration(ctx context.Context, ownerID uuid.UUID, premise string, characterIDs []uuid.UUID) (uuid.UUID, error)
	ResumeOutline(ctx context.Context, jobID uuid.UUID, input jobs.ResumeInput) (*jobs.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Story, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*types.Story, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type storyService struct {
	log        *logger.Logger
	mgr        *jobs.Manager
	runner     *Runner
	executor   *workflow.SequentialExecutor
	registry   *agents.Registry
	stories    repos.StoryRepo
	characters repos.CharacterRepo
}

func NewStoryService(
	baseLog *logger.Logger,
	mgr *jobs.Manager,
	runner *Runner,
	executor *workflow.SequentialExecutor,
	registry *agents.Registry,
	stories repos.StoryRepo,
	characters repos.CharacterRepo,
) StoryService {
	return &storyService{
		log:        baseLog.With("service", "StoryService"),
		mgr:        mgr,
		runner:     runner,
		executor:   executor,
		registry:   registry,
		stories:    stories,
		characters: characters,
	}
}

// storyStepsTotal counts outline + write + cover across both segments.
const storyStepsTotal = 3

func (s *storyService) StartGeneration(ctx context.Context, ownerID uuid.UUID, premise string, characterIDs []uuid.UUID) (uuid.UUID, error) {
	if premise == "" {
		return uuid.Nil, fmt.Errorf("premise is required")
	}

	cast := make([]any, 0, len(characterIDs))
	castIDs := make([]string, 0, len(characterIDs))
	for _, id := range characterIDs {
		char, err := s.characters.GetByID(ctx, nil, id)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load character %s: %w", id, err)
		}
		if char.OwnerUserID != ownerID {
			return uuid.Nil, fmt.Errorf("character %s does not belong to the requesting user", id)
		}
		cast = append(cast, map[string]any{"name": char.Name, "description": char.Description})
		castIDs = append(castIDs, id.String())
	}

	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeWorkflow,
		Title:       "Generate story",
		Description: "Outline the story, wait for approval, then write it",
		StepsTotal:  storyStepsTotal,
		Cancelable:  true,
		Metadata: map[string]any{
			"owner_user_id": ownerID.String(),
			"workflow_id":   "story_outline",
			"premise":       premise,
			"character_ids": castIDs,
		},
	})

	def := workflow.StoryOutlineDefinition()
	s.runner.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		exec := s.executor.Execute(ctx, def, s.registry, map[string]any{
			"premise":    premise,
			"characters": cast,
		}, func(n int, stepID, desc string) {
			_ = s.mgr.UpdateProgress(jobID, float64(n-1)/storyStepsTotal, desc, stepID)
		})
		if exec.Status != workflow.StatusCompleted {
			return nil, fmt.Errorf("%s", exec.Error)
		}
		card := &jobs.BriefCard{
			Title:       "Review story outline",
			Description: "The outline below drives the full draft. Approve it, edit it, or cancel the story.",
			Actions:     []string{"approve", "edit", "cancel"},
		}
		if err := s.mgr.PauseForInput(jobID, exec.Result, card); err != nil {
			return nil, err
		}
		return nil, ErrJobPaused
	})
	return jobID, nil
}

/*
ResumeOutline releases a story job paused on its outline. Approve continues
with the proposed outline, edit continues with the reviewer's replacement,
cancel ends the job without writing anything.
*/
func (s *storyService) ResumeOutline(ctx context.Context, jobID uuid.UUID, input jobs.ResumeInput) (*jobs.Job, error) {
	switch input.Action {
	case "approve", "edit", "cancel":
	default:
		return nil, fmt.Errorf("unsupported resume action %q", input.Action)
	}
	if input.Action == "edit" && len(input.EditedData) == 0 {
		return nil, fmt.Errorf("action edit requires edited_data")
	}

	job, err := s.mgr.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	ownerID, err := uuidFromMeta(job.Metadata, "owner_user_id")
	if err != nil {
		return nil, err
	}
	premise, _ := job.Metadata["premise"].(string)

	res, err := s.mgr.ResumeWithInput(jobID, input)
	if err != nil {
		return nil, err
	}
	if input.Action == "cancel" {
		return s.mgr.GetJob(jobID)
	}

	outline := outlineOf(res)
	if input.Action == "edit" {
		if edited, ok := res.Input.EditedData["outline"].(map[string]any); ok {
			outline = edited
		} else {
			outline = res.Input.EditedData
		}
	}
	characterIDs := job.Metadata["character_ids"]

	def := workflow.StoryWriteDefinition()
	s.runner.Continue(jobID, func(ctx context.Context) (map[string]any, error) {
		title, _ := outline["title"].(string)
		logline, _ := outline["logline"].(string)
		exec := s.executor.Execute(ctx, def, s.registry, map[string]any{
			"outline": outline,
			"prompt":  coverPrompt(title, logline),
		}, func(n int, stepID, desc string) {
			// the outline step already consumed 1 of storyStepsTotal
			_ = s.mgr.UpdateProgress(jobID, float64(1+n-1)/storyStepsTotal, desc, stepID)
		})
		if exec.Status != workflow.StatusCompleted {
			return nil, fmt.Errorf("%s", exec.Error)
		}

		story, err := s.persist(ctx, ownerID, premise, outline, characterIDs, exec.Context)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"story_id":  story.ID.String(),
			"title":     story.Title,
			"cover_url": story.CoverURL,
		}, nil
	})
	return s.mgr.GetJob(jobID)
}

func (s *storyService) persist(ctx context.Context, ownerID uuid.UUID, premise string, outline map[string]any, characterIDs any, execCtx map[string]any) (*types.Story, error) {
	title, _ := outline["title"].(string)
	if title == "" {
		title = "Untitled story"
	}
	var content string
	if written, ok := execCtx["written_story"].(map[string]any); ok {
		if writtenTitle, ok := written["title"].(string); ok && writtenTitle != "" {
			title = writtenTitle
		}
		content, _ = written["content"].(string)
	}
	var coverURL string
	if cover, ok := execCtx["cover"].(map[string]any); ok {
		coverURL, _ = cover["image_url"].(string)
	}

	outlineJSON, err := json.Marshal(outline)
	if err != nil {
		return nil, fmt.Errorf("marshal outline: %w", err)
	}
	idsJSON, err := json.Marshal(characterIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal character ids: %w", err)
	}
	return s.stories.Create(ctx, nil, &types.Story{
		ID:           uuid.New(),
		OwnerUserID:  ownerID,
		Title:        title,
		Premise:      premise,
		Outline:      datatypes.JSON(outlineJSON),
		Content:      content,
		CoverURL:     coverURL,
		CharacterIDs: datatypes.JSON(idsJSON),
	})
}

func (s *storyService) Get(ctx context.Context, id uuid.UUID) (*types.Story, error) {
	return s.stories.GetByID(ctx, nil, id)
}

func (s *storyService) List(ctx context.Context, ownerID uuid.UUID) ([]*types.Story, error) {
	return s.stories.ListByOwner(ctx, nil, ownerID)
}

func (s *storyService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.stories.SoftDelete(ctx, nil, id)
}

func outlineOf(res *jobs.Resumption) map[string]any {
	if res == nil {
		return map[string]any{}
	}
	if m, ok := res.AwaitingData["outline"].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func coverPrompt(title, logline string) string {
	if logline == "" {
		return fmt.Sprintf("Book cover illustration for a story titled %q", title)
	}
	return fmt.Sprintf("Book cover illustration for %q: %s", title, logline)
}
