package app

import (
	"github.com/inkfall/studio-backend/internal/handlers"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/sse"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Jobs          *handlers.JobsHandler
	Agents        *handlers.AgentsHandler
	Merge         *handlers.MergeHandler
	Character     *handlers.CharacterHandler
	Outfit        *handlers.OutfitHandler
	BoardGame     *handlers.BoardGameHandler
	Story         *handlers.StoryHandler
	Visualization *handlers.VisualizationHandler
	Tag           *handlers.TagHandler
	SSE           *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, s Services, r Repos, hub *sse.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:          handlers.NewAuthHandler(s.Auth),
		Jobs:          handlers.NewJobsHandler(s.Manager),
		Agents:        handlers.NewAgentsHandler(s.Registry),
		Merge:         handlers.NewMergeHandler(s.Merge),
		Character:     handlers.NewCharacterHandler(s.Character, s.Cache),
		Outfit:        handlers.NewOutfitHandler(s.Outfit),
		BoardGame:     handlers.NewBoardGameHandler(s.BoardGame),
		Story:         handlers.NewStoryHandler(s.Story),
		Visualization: handlers.NewVisualizationHandler(s.Visualization),
		Tag:           handlers.NewTagHandler(r.Tag),
		SSE:           handlers.NewSSEHandler(hub),
	}
}
