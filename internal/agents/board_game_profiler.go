package agents

import (
	"context"
	"fmt"
	"strconv"

	"github.com/inkfall/studio-backend/internal/clients/bgg"
	"github.com/inkfall/studio-backend/internal/clients/genai"
)

/*
BoardGameProfiler pulls a game's record from BoardGameGeek and layers an AI
flavor profile (theme, tone, suggested character archetypes) on top.
*/
type BoardGameProfiler struct {
	bgg  bgg.Client
	text genai.TextClient
}

func NewBoardGameProfiler(bggClient bgg.Client, text genai.TextClient) *BoardGameProfiler {
	return &BoardGameProfiler{bgg: bggClient, text: text}
}

func (a *BoardGameProfiler) ID() string { return "board_game_profiler" }

func (a *BoardGameProfiler) Info() Info {
	return Info{ID: a.ID(), Name: "Board Game Profiler", EstimatedSeconds: 25, EstimatedCostUSD: 0.01}
}

func (a *BoardGameProfiler) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ValidateRequired(input, "bgg_id"); err != nil {
		return nil, err
	}
	bggID := intInput(input, "bgg_id")
	if bggID <= 0 {
		return nil, fmt.Errorf("bgg_id must be a positive integer")
	}

	thing, err := a.bgg.GetThing(ctx, bggID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"Given this board game, return a JSON object with keys theme (string), "+
			"tone (string) and suggested_characters (list of strings).\n\n"+
			"Name: %s\nDescription: %s",
		thing.Name, thing.Description,
	)
	profile, err := a.text.CompleteJSON(ctx, "You are a tabletop game curator.", prompt, nil)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"board_game": map[string]any{
			"bgg_id":         thing.BGGID,
			"name":           thing.Name,
			"description":    thing.Description,
			"year_published": thing.YearPublished,
			"min_players":    thing.MinPlayers,
			"max_players":    thing.MaxPlayers,
			"play_time_mins": thing.PlayTimeMins,
			"thumbnail_url":  thing.ThumbnailURL,
		},
		"profile": profile,
	}, nil
}

func intInput(input map[string]any, key string) int {
	switch v := input[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
