package app

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/inkfall/studio-backend/internal/db"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/sse"
)

type App struct {
	Log        *logger.Logger
	Cfg        Config
	DB         *db.PostgresService
	SSEHub     *sse.Hub
	Repos      Repos
	Services   Services
	Handlers   Handlers
	Middleware Middleware
	Router     *gin.Engine
}

func New(log *logger.Logger) (*App, error) {
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err := pg.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	hub := sse.NewHub(log)
	repos := wireRepos(pg.DB, log)
	svcs, err := wireServices(pg.DB, log, cfg, repos, hub)
	if err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	handlers := wireHandlers(log, svcs, repos, hub)
	mw := wireMiddleware(log, svcs)
	router := wireRouter(log, cfg, handlers, mw)

	return &App{
		Log:        log,
		Cfg:        cfg,
		DB:         pg,
		SSEHub:     hub,
		Repos:      repos,
		Services:   svcs,
		Handlers:   handlers,
		Middleware: mw,
		Router:     router,
	}, nil
}

func (a *App) Run(addr string) error {
	a.Log.Info("Starting server", "addr", addr)
	return a.Router.Run(addr)
}

/*
Close drains in-flight jobs before releasing external resources. Paused
jobs hold no goroutine, so Wait returns even with work awaiting input.
*/
func (a *App) Close() {
	if a == nil {
		return
	}
	a.Log.Info("Shutting down...")
	a.Services.Runner.Wait()
	if err := a.Services.Cache.Close(); err != nil {
		a.Log.Warn("cache close failed", "error", err)
	}
	if err := a.DB.Close(); err != nil {
		a.Log.Warn("db close failed", "error", err)
	}
	a.Log.Sync()
}
