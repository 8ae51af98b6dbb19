package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/clients/bgg"
	"github.com/inkfall/studio-backend/internal/clients/genai"
	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/media"
	"github.com/inkfall/studio-backend/internal/services"
	"github.com/inkfall/studio-backend/internal/sse"
	"github.com/inkfall/studio-backend/internal/workflow"
)

type Services struct {
	Manager  *jobs.Manager
	Executor *workflow.SequentialExecutor
	Registry *agents.Registry
	Runner   *services.Runner

	Auth          services.AuthService
	Merge         services.MergeService
	Character     services.CharacterService
	Outfit        services.OutfitService
	BoardGame     services.BoardGameService
	Story         services.StoryService
	Visualization services.VisualizationService
	Cache         services.ResponseCache
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *sse.Hub) (Services, error) {
	log.Info("Wiring services...")

	var opts []jobs.ManagerOption
	if cfg.MaxJobDuration > 0 {
		opts = append(opts, jobs.WithMaxJobDuration(cfg.MaxJobDuration))
	}
	if cfg.JobRetention > 0 {
		opts = append(opts, jobs.WithRetention(cfg.JobRetention))
	}
	mgr := jobs.NewManager(log, services.NewJobNotifier(hub), opts...)
	executor := workflow.NewSequentialExecutor(log)
	runner := services.NewRunner(log, mgr, executor, cfg.BatchConcurrency)

	registry, err := wireAgents(log)
	if err != nil {
		return Services{}, err
	}

	cache, err := services.NewResponseCache(log)
	if err != nil {
		log.Warn("Response cache unavailable, running without it", "error", err)
		cache = services.NewNoopCache()
	}

	return Services{
		Manager:       mgr,
		Executor:      executor,
		Registry:      registry,
		Runner:        runner,
		Auth:          services.NewAuthService(db, log, r.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Merge:         services.NewMergeService(log, db, mgr, runner, registry, r.Character, r.MergeAudit),
		Character:     services.NewCharacterService(log, db, mgr, runner, executor, registry, r.Character, r.Tag),
		Outfit:        services.NewOutfitService(log, mgr, runner, registry, r.Outfit, r.Character),
		BoardGame:     services.NewBoardGameService(log, mgr, runner, registry, r.BoardGame),
		Story:         services.NewStoryService(log, mgr, runner, executor, registry, r.Story, r.Character),
		Visualization: services.NewVisualizationService(log, mgr, runner, registry, r.VisualizationConfig),
		Cache:         cache,
	}, nil
}

func wireAgents(log *logger.Logger) (*agents.Registry, error) {
	text, err := genai.NewTextClient(log)
	if err != nil {
		return nil, fmt.Errorf("text client: %w", err)
	}
	image, err := genai.NewImageClient(log)
	if err != nil {
		return nil, fmt.Errorf("image client: %w", err)
	}
	compositor, err := media.NewCompositor(log)
	if err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}
	bggClient := bgg.NewClient(log)

	registry := agents.NewRegistry()
	all := []agents.Agent{
		agents.NewCharacterAnalyst(text),
		agents.NewStyleAnalyst(text),
		agents.NewPaletteExtractor(text),
		agents.NewMergeAnalyst(text),
		agents.NewOutfitDesigner(text),
		agents.NewBoardGameProfiler(bggClient, text),
		agents.NewStoryOutliner(text),
		agents.NewStoryWriter(text),
		agents.NewSceneIllustrator(image),
		agents.NewVisualizationRenderer(compositor),
	}
	for _, a := range all {
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
