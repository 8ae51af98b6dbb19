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
)

type OutfitCreateInput struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	CharacterID *uuid.UUID `json:"character_id"`
	ImageURL    string     `json:"image_url"`
}

type OutfitUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

// OutfitService owns outfit CRUD plus the AI design job that drafts an
// outfit for a character and persists the proposal as a new row.
type OutfitService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in OutfitCreateInput) (*types.Outfit, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Outfit, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*types.Outfit, error)
	ListByCharacter(ctx context.Context, characterID uuid.UUID) ([]*types.Outfit, error)
	Update(ctx context.Context, id uuid.UUID, in OutfitUpdateInput) (*types.Outfit, error)
	Delete(ctx context.Context, id uuid.UUID) error

	StartDesign(ctx context.Context, ownerID, characterID uuid.UUID, occasion string) (uuid.UUID, error)
}

type outfitService struct {
	log        *logger.Logger
	mgr        *jobs.Manager
	runner     *Runner
	registry   *agents.Registry
	outfits    repos.OutfitRepo
	characters repos.CharacterRepo
}

func NewOutfitService(
	baseLog *logger.Logger,
	mgr *jobs.Manager,
	runner *Runner,
	registry *agents.Registry,
	outfits repos.OutfitRepo,
	characters repos.CharacterRepo,
) OutfitService {
	return &outfitService{
		log:        baseLog.With("service", "OutfitService"),
		mgr:        mgr,
		runner:     runner,
		registry:   registry,
		outfits:    outfits,
		characters: characters,
	}
}

func (s *outfitService) Create(ctx context.Context, ownerID uuid.UUID, in OutfitCreateInput) (*types.Outfit, error) {
	return s.outfits.Create(ctx, nil, &types.Outfit{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		CharacterID: in.CharacterID,
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	})
}

func (s *outfitService) Get(ctx context.Context, id uuid.UUID) (*types.Outfit, error) {
	return s.outfits.GetByID(ctx, nil, id)
}

func (s *outfitService) List(ctx context.Context, ownerID uuid.UUID) ([]*types.Outfit, error) {
	return s.outfits.ListByOwner(ctx, nil, ownerID)
}

func (s *outfitService) ListByCharacter(ctx context.Context, characterID uuid.UUID) ([]*types.Outfit, error) {
	return s.outfits.ListByCharacter(ctx, nil, characterID)
}

func (s *outfitService) Update(ctx context.Context, id uuid.UUID, in OutfitUpdateInput) (*types.Outfit, error) {
	fields := make(map[string]any, 3)
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}
	if err := s.outfits.UpdateFields(ctx, nil, id, fields); err != nil {
		return nil, err
	}
	return s.outfits.GetByID(ctx, nil, id)
}

func (s *outfitService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.outfits.SoftDelete(ctx, nil, id)
}

func (s *outfitService) StartDesign(ctx context.Context, ownerID, characterID uuid.UUID, occasion string) (uuid.UUID, error) {
	character, err := s.characters.GetByID(ctx, nil, characterID)
	if err != nil {
		return uuid.Nil, err
	}
	if character.OwnerUserID != ownerID {
		return uuid.Nil, fmt.Errorf("character %s does not belong to the requesting user", characterID)
	}

	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeAnalyze,
		Title:       fmt.Sprintf("Design an outfit for %q", character.Name),
		Description: "Draft an itemized outfit proposal",
		Cancelable:  true,
		Metadata: map[string]any{
			"owner_user_id": ownerID.String(),
			"character_id":  characterID.String(),
		},
	})

	input := map[string]any{
		"character_name":        character.Name,
		"character_description": character.Description,
	}
	if occasion != "" {
		input["occasion"] = occasion
	}
	if palette := paletteFromTraits(character.Traits); palette != nil {
		input["palette"] = palette
	}

	s.runner.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		_ = s.mgr.UpdateProgress(jobID, 0.2, "Designing outfit", "design")
		designer, ok := s.registry.Get("outfit_designer")
		if !ok {
			return nil, fmt.Errorf("outfit_designer agent not registered")
		}
		out, err := designer.Execute(ctx, input)
		if err != nil {
			return nil, err
		}
		proposal, _ := out["outfit"].(map[string]any)
		if proposal == nil {
			return nil, fmt.Errorf("designer returned no outfit")
		}

		outfit := &types.Outfit{
			ID:          uuid.New(),
			OwnerUserID: ownerID,
			CharacterID: &characterID,
		}
		outfit.Name, _ = proposal["name"].(string)
		if outfit.Name == "" {
			outfit.Name = "Untitled outfit"
		}
		outfit.Description, _ = proposal["description"].(string)
		if pieces, ok := proposal["pieces"]; ok {
			raw, err := json.Marshal(pieces)
			if err != nil {
				return nil, fmt.Errorf("marshal pieces: %w", err)
			}
			outfit.Pieces = datatypes.JSON(raw)
		}
		if palette, ok := input["palette"]; ok {
			raw, err := json.Marshal(palette)
			if err != nil {
				return nil, fmt.Errorf("marshal palette: %w", err)
			}
			outfit.Palette = datatypes.JSON(raw)
		}
		if _, err := s.outfits.Create(ctx, nil, outfit); err != nil {
			return nil, err
		}
		return map[string]any{"outfit_id": outfit.ID.String(), "outfit": proposal}, nil
	})
	return jobID, nil
}

// paletteFromTraits digs the extracted palette out of a character's traits
// document, if an analysis ever produced one.
func paletteFromTraits(traits datatypes.JSON) any {
	if len(traits) == 0 {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(traits, &doc); err != nil {
		return nil
	}
	return doc["palette"]
}
