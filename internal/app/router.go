package app

import (
	"github.com/gin-gonic/gin"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, h Handlers, mw Middleware) *gin.Engine {
	log.Info("Wiring router...")
	return server.NewRouter(server.RouterConfig{
		ServiceName:          cfg.ServiceName,
		CORSOrigins:          cfg.CORSOrigins,
		AuthMiddleware:       mw.Auth,
		AuthHandler:          h.Auth,
		JobsHandler:          h.Jobs,
		AgentsHandler:        h.Agents,
		MergeHandler:         h.Merge,
		CharacterHandler:     h.Character,
		OutfitHandler:        h.Outfit,
		BoardGameHandler:     h.BoardGame,
		StoryHandler:         h.Story,
		VisualizationHandler: h.Visualization,
		TagHandler:           h.Tag,
		SSEHandler:           h.SSE,
	})
}
