package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/repos"
	"github.com/inkfall/studio-backend/internal/types"
	"github.com/inkfall/studio-backend/internal/workflow"
)

type CharacterCreateInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	AvatarURL   string   `json:"avatar_url"`
	Tags        []string `json:"tags"`
}

type CharacterUpdateInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	AvatarURL   *string  `json:"avatar_url"`
	Tags        []string `json:"tags"`
}

/*
CharacterService owns character CRUD and every character-scoped AI job:
single analysis, the three-step comprehensive analysis, batch analysis and
portrait generation. AI outputs land in the character's Traits document.
*/
type CharacterService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in CharacterCreateInput) (*types.Character, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Character, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*types.Character, error)
	Update(ctx context.Context, id uuid.UUID, in CharacterUpdateInput) (*types.Character, error)
	Delete(ctx context.Context, id uuid.UUID) error

	StartAnalyze(ctx context.Context, ownerID, characterID uuid.UUID) (uuid.UUID, error)
	StartComprehensiveAnalyze(ctx context.Context, ownerID, characterID uuid.UUID) (uuid.UUID, error)
	StartBatchAnalyze(ctx context.Context, ownerID uuid.UUID, characterIDs []uuid.UUID) (uuid.UUID, error)
	StartPortrait(ctx context.Context, ownerID, characterID uuid.UUID, stylePrompt string) (uuid.UUID, error)
}

type characterService struct {
	log        *logger.Logger
	db         *gorm.DB
	mgr        *jobs.Manager
	runner     *Runner
	executor   *workflow.SequentialExecutor
	registry   *agents.Registry
	characters repos.CharacterRepo
	tags       repos.TagRepo
}

func NewCharacterService(
	baseLog *logger.Logger,
	db *gorm.DB,
	mgr *jobs.Manager,
	runner *Runner,
	executor *workflow.SequentialExecutor,
	registry *agents.Registry,
	characters repos.CharacterRepo,
	tags repos.TagRepo,
) CharacterService {
	return &characterService{
		log:        baseLog.With("service", "CharacterService"),
		db:         db,
		mgr:        mgr,
		runner:     runner,
		executor:   executor,
		registry:   registry,
		characters: characters,
		tags:       tags,
	}
}

func (s *characterService) Create(ctx context.Context, ownerID uuid.UUID, in CharacterCreateInput) (*types.Character, error) {
	character := &types.Character{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		Name:        in.Name,
		Description: in.Description,
		AvatarURL:   in.AvatarURL,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.characters.Create(ctx, tx, character); err != nil {
			return err
		}
		if len(in.Tags) == 0 {
			return nil
		}
		rows, err := s.tags.GetOrCreate(ctx, tx, in.Tags)
		if err != nil {
			return err
		}
		return s.characters.ReplaceTags(ctx, tx, character, rows)
	})
	if err != nil {
		return nil, err
	}
	return s.characters.GetByID(ctx, nil, character.ID)
}

func (s *characterService) Get(ctx context.Context, id uuid.UUID) (*types.Character, error) {
	return s.characters.GetByID(ctx, nil, id)
}

func (s *characterService) List(ctx context.Context, ownerID uuid.UUID) ([]*types.Character, error) {
	return s.characters.ListByOwner(ctx, nil, ownerID)
}

func (s *characterService) Update(ctx context.Context, id uuid.UUID, in CharacterUpdateInput) (*types.Character, error) {
	fields := make(map[string]any, 3)
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = *in.AvatarURL
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.characters.UpdateFields(ctx, tx, id, fields); err != nil {
			return err
		}
		if in.Tags == nil {
			return nil
		}
		character, err := s.characters.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		rows, err := s.tags.GetOrCreate(ctx, tx, in.Tags)
		if err != nil {
			return err
		}
		return s.characters.ReplaceTags(ctx, tx, character, rows)
	})
	if err != nil {
		return nil, err
	}
	return s.characters.GetByID(ctx, nil, id)
}

func (s *characterService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.characters.SoftDelete(ctx, nil, id)
}

func (s *characterService) StartAnalyze(ctx context.Context, ownerID, characterID uuid.UUID) (uuid.UUID, error) {
	character, err := s.ownedCharacter(ctx, ownerID, characterID)
	if err != nil {
		return uuid.Nil, err
	}

	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeAnalyze,
		Title:       fmt.Sprintf("Analyze %q", character.Name),
		Description: "Derive a personality and appearance profile",
		Cancelable:  true,
		Metadata:    characterJobMeta(ownerID, characterID),
	})
	name, desc := character.Name, character.Description
	s.runner.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		_ = s.mgr.UpdateProgress(jobID, 0.2, "Analyzing character", "analyze")
		out, err := s.runAgent(ctx, "character_analyst", map[string]any{
			"name":        name,
			"description": desc,
		})
		if err != nil {
			return nil, err
		}
		if err := s.mergeTraits(ctx, characterID, map[string]any{"profile": out["profile"]}); err != nil {
			return nil, err
		}
		return out, nil
	})
	return jobID, nil
}

func (s *characterService) StartComprehensiveAnalyze(ctx context.Context, ownerID, characterID uuid.UUID) (uuid.UUID, error) {
	character, err := s.ownedCharacter(ctx, ownerID, characterID)
	if err != nil {
		return uuid.Nil, err
	}

	def := workflow.ComprehensiveAnalyzeDefinition()
	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeComprehensiveAnalyze,
		Title:       fmt.Sprintf("Comprehensive analysis of %q", character.Name),
		Description: "Profile, style brief and color palette in sequence",
		StepsTotal:  len(def.Steps),
		Cancelable:  true,
		Metadata:    characterJobMeta(ownerID, characterID),
	})
	name, desc := character.Name, character.Description
	s.runner.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		exec := s.executor.Execute(ctx, def, s.registry, map[string]any{
			"name":        name,
			"description": desc,
		}, func(n int, stepID, stepDesc string) {
			_ = s.mgr.UpdateProgress(jobID, float64(n-1)/float64(len(def.Steps)), stepDesc, stepID)
		})
		if exec.Status != workflow.StatusCompleted {
			return nil, fmt.Errorf("%s", exec.Error)
		}
		// the job result carries every stage, not only the last step's output
		traits := map[string]any{
			"profile": exec.Context["profile"],
			"style":   exec.Context["style"],
			"palette": exec.Context["palette"],
		}
		if err := s.mergeTraits(ctx, characterID, traits); err != nil {
			return nil, err
		}
		return traits, nil
	})
	return jobID, nil
}

/*
StartBatchAnalyze analyzes many characters under one job with the
collect-and-continue policy: each character's failure is recorded as a
failed item and the rest still run.
*/
func (s *characterService) StartBatchAnalyze(ctx context.Context, ownerID uuid.UUID, characterIDs []uuid.UUID) (uuid.UUID, error) {
	if len(characterIDs) == 0 {
		return uuid.Nil, fmt.Errorf("no characters given")
	}
	items := make([]BatchItem, 0, len(characterIDs))
	for _, id := range characterIDs {
		character, err := s.ownedCharacter(ctx, ownerID, id)
		if err != nil {
			return uuid.Nil, err
		}
		id, name, desc := id, character.Name, character.Description
		items = append(items, BatchItem{
			Name: name,
			Run: func(ctx context.Context) (map[string]any, error) {
				out, err := s.runAgent(ctx, "character_analyst", map[string]any{
					"name":        name,
					"description": desc,
				})
				if err != nil {
					return nil, err
				}
				if err := s.mergeTraits(ctx, id, map[string]any{"profile": out["profile"]}); err != nil {
					return nil, err
				}
				return map[string]any{"character_id": id.String(), "profile": out["profile"]}, nil
			},
		})
	}

	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeBatchAnalyze,
		Title:       fmt.Sprintf("Analyze %d characters", len(items)),
		Description: "Batch character analysis",
		StepsTotal:  len(items),
		Cancelable:  true,
		Metadata:    map[string]any{"owner_user_id": ownerID.String()},
	})
	s.runner.RunBatch(jobID, items)
	return jobID, nil
}

func (s *characterService) StartPortrait(ctx context.Context, ownerID, characterID uuid.UUID, stylePrompt string) (uuid.UUID, error) {
	character, err := s.ownedCharacter(ctx, ownerID, characterID)
	if err != nil {
		return uuid.Nil, err
	}

	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeGenerateImage,
		Title:       fmt.Sprintf("Portrait of %q", character.Name),
		Description: "Generate a character portrait",
		Cancelable:  true,
		Metadata:    characterJobMeta(ownerID, characterID),
	})
	prompt := fmt.Sprintf("Portrait of %s. %s", character.Name, character.Description)
	if stylePrompt != "" {
		prompt = fmt.Sprintf("%s Style: %s", prompt, stylePrompt)
	}
	s.runner.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		_ = s.mgr.UpdateProgress(jobID, 0.2, "Generating portrait", "illustrate")
		out, err := s.runAgent(ctx, "scene_illustrator", map[string]any{"prompt": prompt})
		if err != nil {
			return nil, err
		}
		if url, ok := out["image_url"].(string); ok && url != "" {
			if err := s.characters.UpdateFields(ctx, nil, characterID, map[string]any{"avatar_url": url}); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
	return jobID, nil
}

func (s *characterService) runAgent(ctx context.Context, agentID string, input map[string]any) (map[string]any, error) {
	agent, ok := s.registry.Get(agentID)
	if !ok {
		return nil, fmt.Errorf("%s agent not registered", agentID)
	}
	return agent.Execute(ctx, input)
}

func (s *characterService) ownedCharacter(ctx context.Context, ownerID, characterID uuid.UUID) (*types.Character, error) {
	character, err := s.characters.GetByID(ctx, nil, characterID)
	if err != nil {
		return nil, err
	}
	if character.OwnerUserID != ownerID {
		return nil, fmt.Errorf("character %s does not belong to the requesting user", characterID)
	}
	return character, nil
}

// mergeTraits folds new analysis keys into the existing Traits document
// instead of replacing it, so a palette run does not erase the profile.
func (s *characterService) mergeTraits(ctx context.Context, characterID uuid.UUID, updates map[string]any) error {
	character, err := s.characters.GetByID(ctx, nil, characterID)
	if err != nil {
		return err
	}
	traits := map[string]any{}
	if len(character.Traits) > 0 {
		if err := json.Unmarshal(character.Traits, &traits); err != nil {
			traits = map[string]any{}
		}
	}
	for k, v := range updates {
		if v != nil {
			traits[k] = v
		}
	}
	raw, err := json.Marshal(traits)
	if err != nil {
		return fmt.Errorf("marshal traits: %w", err)
	}
	return s.characters.UpdateFields(ctx, nil, characterID, map[string]any{"traits": datatypes.JSON(raw)})
}

func characterJobMeta(ownerID, characterID uuid.UUID) map[string]any {
	return map[string]any{
		"owner_user_id": ownerID.String(),
		"character_id":  characterID.String(),
	}
}
