package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/inkfall/studio-backend/internal/handlers"
	"github.com/inkfall/studio-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *middleware.AuthMiddleware

	AuthHandler          *handlers.AuthHandler
	JobsHandler          *handlers.JobsHandler
	AgentsHandler        *handlers.AgentsHandler
	MergeHandler         *handlers.MergeHandler
	CharacterHandler     *handlers.CharacterHandler
	OutfitHandler        *handlers.OutfitHandler
	BoardGameHandler     *handlers.BoardGameHandler
	StoryHandler         *handlers.StoryHandler
	VisualizationHandler *handlers.VisualizationHandler
	TagHandler           *handlers.TagHandler
	SSEHandler           *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.GET("/sse/stream", cfg.SSEHandler.Stream)
	protected.POST("/sse/subscribe", cfg.SSEHandler.Subscribe)
	protected.POST("/sse/unsubscribe", cfg.SSEHandler.Unsubscribe)

	api := protected.Group("/api")
	{
		// Jobs
		api.GET("/jobs", cfg.JobsHandler.ListJobs)
		api.GET("/jobs/:id", cfg.JobsHandler.GetJobByID)
		api.POST("/jobs/:id/cancel", cfg.JobsHandler.CancelJob)

		// Agents
		api.GET("/agents", cfg.AgentsHandler.List)

		// Merge
		api.POST("/merge/characters", cfg.MergeHandler.StartCharacterMerge)
		api.POST("/merge/resume/:job_id", cfg.MergeHandler.Resume)

		// Characters
		api.POST("/characters", cfg.CharacterHandler.Create)
		api.GET("/characters", cfg.CharacterHandler.List)
		api.GET("/characters/:id", cfg.CharacterHandler.Get)
		api.PATCH("/characters/:id", cfg.CharacterHandler.Update)
		api.DELETE("/characters/:id", cfg.CharacterHandler.Delete)
		api.POST("/characters/:id/analyze", cfg.CharacterHandler.Analyze)
		api.POST("/characters/:id/analyze/comprehensive", cfg.CharacterHandler.ComprehensiveAnalyze)
		api.POST("/characters/:id/portrait", cfg.CharacterHandler.Portrait)
		api.POST("/characters/analyze/batch", cfg.CharacterHandler.BatchAnalyze)

		// Outfits
		api.POST("/outfits", cfg.OutfitHandler.Create)
		api.GET("/outfits", cfg.OutfitHandler.List)
		api.GET("/outfits/:id", cfg.OutfitHandler.Get)
		api.PATCH("/outfits/:id", cfg.OutfitHandler.Update)
		api.DELETE("/outfits/:id", cfg.OutfitHandler.Delete)
		api.POST("/outfits/design", cfg.OutfitHandler.Design)

		// Board games
		api.POST("/boardgames", cfg.BoardGameHandler.Create)
		api.GET("/boardgames", cfg.BoardGameHandler.List)
		api.GET("/boardgames/:id", cfg.BoardGameHandler.Get)
		api.PATCH("/boardgames/:id", cfg.BoardGameHandler.Update)
		api.DELETE("/boardgames/:id", cfg.BoardGameHandler.Delete)
		api.POST("/boardgames/import", cfg.BoardGameHandler.Import)

		// Stories
		api.POST("/stories/generate", cfg.StoryHandler.Generate)
		api.POST("/stories/resume/:job_id", cfg.StoryHandler.ResumeOutline)
		api.GET("/stories", cfg.StoryHandler.List)
		api.GET("/stories/:id", cfg.StoryHandler.Get)
		api.DELETE("/stories/:id", cfg.StoryHandler.Delete)

		// Visualizations
		api.POST("/visualizations", cfg.VisualizationHandler.Create)
		api.GET("/visualizations", cfg.VisualizationHandler.List)
		api.GET("/visualizations/:id", cfg.VisualizationHandler.Get)
		api.PATCH("/visualizations/:id", cfg.VisualizationHandler.Update)
		api.DELETE("/visualizations/:id", cfg.VisualizationHandler.Delete)
		api.GET("/visualizations/:id/export", cfg.VisualizationHandler.Export)
		api.POST("/visualizations/import", cfg.VisualizationHandler.Import)
		api.POST("/visualizations/:id/preview", cfg.VisualizationHandler.Preview)

		// Tags
		api.POST("/tags", cfg.TagHandler.Create)
		api.GET("/tags", cfg.TagHandler.List)
		api.DELETE("/tags/:id", cfg.TagHandler.Delete)
	}

	return router
}
