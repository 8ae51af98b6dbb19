package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/repos"
	"github.com/inkfall/studio-backend/internal/types"
)

type VisualizationCreateInput struct {
	Name    string         `json:"name" binding:"required"`
	Layout  string         `json:"layout"`
	Options map[string]any `json:"options"`
}

type VisualizationUpdateInput struct {
	Name    *string        `json:"name"`
	Layout  *string        `json:"layout"`
	Options map[string]any `json:"options"`
}

// visualizationExport is the YAML shape configs round-trip through. Ids and
// timestamps are deliberately left out so an export is portable.
type visualizationExport struct {
	Name    string         `yaml:"name"`
	Layout  string         `yaml:"layout"`
	Options map[string]any `yaml:"options,omitempty"`
}

/*
VisualizationService owns visualization config CRUD, YAML import/export and
the preview render job that draws a card via the in-process compositor.
*/
type VisualizationService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in VisualizationCreateInput) (*types.VisualizationConfig, error)
	Get(ctx context.Context, id uuid.UUID) (*types.VisualizationConfig, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*types.VisualizationConfig, error)
	Update(ctx context.Context, id uuid.UUID, in VisualizationUpdateInput) (*types.VisualizationConfig, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ExportYAML(ctx context.Context, id uuid.UUID) ([]byte, error)
	ImportYAML(ctx context.Context, ownerID uuid.UUID, raw []byte) (*types.VisualizationConfig, error)
	StartPreviewRender(ctx context.Context, ownerID, configID uuid.UUID) (uuid.UUID, error)
}

type visualizationService struct {
	log      *logger.Logger
	mgr      *jobs.Manager
	runner   *Runner
	registry *agents.Registry
	configs  repos.VisualizationConfigRepo
}

func NewVisualizationService(
	baseLog *logger.Logger,
	mgr *jobs.Manager,
	runner *Runner,
	registry *agents.Registry,
	configs repos.VisualizationConfigRepo,
) VisualizationService {
	return &visualizationService{
		log:      baseLog.With("service", "VisualizationService"),
		mgr:      mgr,
		runner:   runner,
		registry: registry,
		configs:  configs,
	}
}

func (s *visualizationService) Create(ctx context.Context, ownerID uuid.UUID, in VisualizationCreateInput) (*types.VisualizationConfig, error) {
	layout := in.Layout
	if layout == "" {
		layout = "card"
	}
	cfg := &types.VisualizationConfig{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		Name:        in.Name,
		Layout:      layout,
	}
	if in.Options != nil {
		raw, err := json.Marshal(in.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		cfg.Options = datatypes.JSON(raw)
	}
	return s.configs.Create(ctx, nil, cfg)
}

func (s *visualizationService) Get(ctx context.Context, id uuid.UUID) (*types.VisualizationConfig, error) {
	return s.configs.GetByID(ctx, nil, id)
}

func (s *visualizationService) List(ctx context.Context, ownerID uuid.UUID) ([]*types.VisualizationConfig, error) {
	return s.configs.ListByOwner(ctx, nil, ownerID)
}

func (s *visualizationService) Update(ctx context.Context, id uuid.UUID, in VisualizationUpdateInput) (*types.VisualizationConfig, error) {
	fields := make(map[string]any, 3)
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Layout != nil {
		fields["layout"] = *in.Layout
	}
	if in.Options != nil {
		raw, err := json.Marshal(in.Options)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		fields["options"] = datatypes.JSON(raw)
	}
	if err := s.configs.UpdateFields(ctx, nil, id, fields); err != nil {
		return nil, err
	}
	return s.configs.GetByID(ctx, nil, id)
}

func (s *visualizationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.configs.SoftDelete(ctx, nil, id)
}

func (s *visualizationService) ExportYAML(ctx context.Context, id uuid.UUID) ([]byte, error) {
	cfg, err := s.configs.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	export := visualizationExport{Name: cfg.Name, Layout: cfg.Layout}
	if len(cfg.Options) > 0 {
		if err := json.Unmarshal(cfg.Options, &export.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
	}
	return yaml.Marshal(export)
}

func (s *visualizationService) ImportYAML(ctx context.Context, ownerID uuid.UUID, raw []byte) (*types.VisualizationConfig, error) {
	var export visualizationExport
	if err := yaml.Unmarshal(raw, &export); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if export.Name == "" {
		return nil, fmt.Errorf("import is missing a name")
	}
	return s.Create(ctx, ownerID, VisualizationCreateInput{
		Name:    export.Name,
		Layout:  export.Layout,
		Options: export.Options,
	})
}

func (s *visualizationService) StartPreviewRender(ctx context.Context, ownerID, configID uuid.UUID) (uuid.UUID, error) {
	cfg, err := s.configs.GetByID(ctx, nil, configID)
	if err != nil {
		return uuid.Nil, err
	}
	if cfg.OwnerUserID != ownerID {
		return uuid.Nil, fmt.Errorf("config %s does not belong to the requesting user", configID)
	}

	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeGenerateImage,
		Title:       fmt.Sprintf("Render preview for %q", cfg.Name),
		Description: "Draw the configured preview card",
		Cancelable:  true,
		Metadata: map[string]any{
			"owner_user_id": ownerID.String(),
			"config_id":     configID.String(),
		},
	})

	input := map[string]any{
		"title":  cfg.Name,
		"layout": cfg.Layout,
	}
	if len(cfg.Options) > 0 {
		var options map[string]any
		if err := json.Unmarshal(cfg.Options, &options); err == nil {
			for _, key := range []string{"subtitle", "background", "accent", "palette"} {
				if v, ok := options[key]; ok {
					input[key] = v
				}
			}
		}
	}

	s.runner.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		_ = s.mgr.UpdateProgress(jobID, 0.3, "Rendering preview", "render")
		renderer, ok := s.registry.Get("visualization_renderer")
		if !ok {
			return nil, fmt.Errorf("visualization_renderer agent not registered")
		}
		out, err := renderer.Execute(ctx, input)
		if err != nil {
			return nil, err
		}
		// data URL so the client can show the preview with no extra fetch
		if b64, ok := out["preview_png_base64"].(string); ok && b64 != "" {
			url := "data:image/png;base64," + b64
			if err := s.configs.UpdateFields(ctx, nil, configID, map[string]any{"preview_url": url}); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
	return jobID, nil
}
