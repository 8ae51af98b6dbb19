package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
)

type VisualizationConfigRepo interface {
	Create(ctx context.Context, tx *gorm.DB, cfg *types.VisualizationConfig) (*types.VisualizationConfig, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VisualizationConfig, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.VisualizationConfig, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type visualizationConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVisualizationConfigRepo(db *gorm.DB, baseLog *logger.Logger) VisualizationConfigRepo {
	return &visualizationConfigRepo{db: db, log: baseLog.With("repo", "VisualizationConfigRepo")}
}

func (vr *visualizationConfigRepo) Create(ctx context.Context, tx *gorm.DB, cfg *types.VisualizationConfig) (*types.VisualizationConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if err := transaction.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

func (vr *visualizationConfigRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.VisualizationConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var cfg types.VisualizationConfig
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (vr *visualizationConfigRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.VisualizationConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var results []*types.VisualizationConfig
	if err := transaction.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (vr *visualizationConfigRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.VisualizationConfig{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (vr *visualizationConfigRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.VisualizationConfig{}).Error
}
