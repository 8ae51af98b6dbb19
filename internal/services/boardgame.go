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

type BoardGameCreateInput struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	BGGID         int    `json:"bgg_id"`
	YearPublished int    `json:"year_published"`
	MinPlayers    int    `json:"min_players"`
	MaxPlayers    int    `json:"max_players"`
	PlayTimeMins  int    `json:"play_time_mins"`
	ThumbnailURL  string `json:"thumbnail_url"`
}

type BoardGameUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	MinPlayers  *int    `json:"min_players"`
	MaxPlayers  *int    `json:"max_players"`
}

/*
BoardGameService owns board game CRUD and the import job that pulls a game
from BoardGameGeek, layers an AI flavor profile on top and upserts the row.
*/
type BoardGameService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in BoardGameCreateInput) (*types.BoardGame, error)
	Get(ctx context.Context, id uuid.UUID) (*types.BoardGame, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*types.BoardGame, error)
	Update(ctx context.Context, id uuid.UUID, in BoardGameUpdateInput) (*types.BoardGame, error)
	Delete(ctx context.Context, id uuid.UUID) error

	StartImport(ctx context.Context, ownerID uuid.UUID, bggID int) (uuid.UUID, error)
}

type boardGameService struct {
	log      *logger.Logger
	mgr      *jobs.Manager
	runner   *Runner
	registry *agents.Registry
	games    repos.BoardGameRepo
}

func NewBoardGameService(
	baseLog *logger.Logger,
	mgr *jobs.Manager,
	runner *Runner,
	registry *agents.Registry,
	games repos.BoardGameRepo,
) BoardGameService {
	return &boardGameService{
		log:      baseLog.With("service", "BoardGameService"),
		mgr:      mgr,
		runner:   runner,
		registry: registry,
		games:    games,
	}
}

func (s *boardGameService) Create(ctx context.Context, ownerID uuid.UUID, in BoardGameCreateInput) (*types.BoardGame, error) {
	return s.games.Create(ctx, nil, &types.BoardGame{
		ID:            uuid.New(),
		OwnerUserID:   ownerID,
		BGGID:         in.BGGID,
		Name:          in.Name,
		Description:   in.Description,
		YearPublished: in.YearPublished,
		MinPlayers:    in.MinPlayers,
		MaxPlayers:    in.MaxPlayers,
		PlayTimeMins:  in.PlayTimeMins,
		ThumbnailURL:  in.ThumbnailURL,
	})
}

func (s *boardGameService) Get(ctx context.Context, id uuid.UUID) (*types.BoardGame, error) {
	return s.games.GetByID(ctx, nil, id)
}

func (s *boardGameService) List(ctx context.Context, ownerID uuid.UUID) ([]*types.BoardGame, error) {
	return s.games.ListByOwner(ctx, nil, ownerID)
}

func (s *boardGameService) Update(ctx context.Context, id uuid.UUID, in BoardGameUpdateInput) (*types.BoardGame, error) {
	fields := make(map[string]any, 4)
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.MinPlayers != nil {
		fields["min_players"] = *in.MinPlayers
	}
	if in.MaxPlayers != nil {
		fields["max_players"] = *in.MaxPlayers
	}
	if err := s.games.UpdateFields(ctx, nil, id, fields); err != nil {
		return nil, err
	}
	return s.games.GetByID(ctx, nil, id)
}

func (s *boardGameService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.games.SoftDelete(ctx, nil, id)
}

func (s *boardGameService) StartImport(ctx context.Context, ownerID uuid.UUID, bggID int) (uuid.UUID, error) {
	if bggID <= 0 {
		return uuid.Nil, fmt.Errorf("bgg_id must be a positive integer")
	}

	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeAnalyze,
		Title:       fmt.Sprintf("Import board game %d", bggID),
		Description: "Fetch the BoardGameGeek record and profile it",
		StepsTotal:  2,
		Cancelable:  true,
		Metadata: map[string]any{
			"owner_user_id": ownerID.String(),
			"bgg_id":        bggID,
		},
	})

	s.runner.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		_ = s.mgr.UpdateProgress(jobID, 0.2, "Fetching and profiling", "profile")
		profiler, ok := s.registry.Get("board_game_profiler")
		if !ok {
			return nil, fmt.Errorf("board_game_profiler agent not registered")
		}
		out, err := profiler.Execute(ctx, map[string]any{"bgg_id": bggID})
		if err != nil {
			return nil, err
		}
		record, _ := out["board_game"].(map[string]any)
		if record == nil {
			return nil, fmt.Errorf("profiler returned no board_game record")
		}
		_ = s.mgr.UpdateProgress(jobID, 0.7, "Saving record", "save")

		game, err := s.upsert(ctx, ownerID, bggID, record, out["profile"])
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"board_game_id": game.ID.String(),
			"name":          game.Name,
			"profile":       out["profile"],
		}, nil
	})
	return jobID, nil
}

// upsert reuses the owner's existing row for this BGG id when there is one,
// so re-importing refreshes instead of duplicating.
func (s *boardGameService) upsert(ctx context.Context, ownerID uuid.UUID, bggID int, record map[string]any, profile any) (*types.BoardGame, error) {
	var profileJSON datatypes.JSON
	if profile != nil {
		raw, err := json.Marshal(profile)
		if err != nil {
			return nil, fmt.Errorf("marshal profile: %w", err)
		}
		profileJSON = datatypes.JSON(raw)
	}

	name, _ := record["name"].(string)
	desc, _ := record["description"].(string)
	fields := map[string]any{
		"name":           name,
		"description":    desc,
		"year_published": intField(record, "year_published"),
		"min_players":    intField(record, "min_players"),
		"max_players":    intField(record, "max_players"),
		"play_time_mins": intField(record, "play_time_mins"),
	}
	if thumb, _ := record["thumbnail_url"].(string); thumb != "" {
		fields["thumbnail_url"] = thumb
	}
	if profileJSON != nil {
		fields["profile"] = profileJSON
	}

	existing, err := s.games.GetByBGGID(ctx, nil, ownerID, bggID)
	if err == nil {
		if err := s.games.UpdateFields(ctx, nil, existing.ID, fields); err != nil {
			return nil, err
		}
		return s.games.GetByID(ctx, nil, existing.ID)
	}

	game := &types.BoardGame{
		ID:            uuid.New(),
		OwnerUserID:   ownerID,
		BGGID:         bggID,
		Name:          name,
		Description:   desc,
		YearPublished: intField(record, "year_published"),
		MinPlayers:    intField(record, "min_players"),
		MaxPlayers:    intField(record, "max_players"),
		PlayTimeMins:  intField(record, "play_time_mins"),
		Profile:       profileJSON,
	}
	game.ThumbnailURL, _ = record["thumbnail_url"].(string)
	return s.games.Create(ctx, nil, game)
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
