package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
)

type StoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, story *types.Story) (*types.Story, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Story, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Story, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type storyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoryRepo(db *gorm.DB, baseLog *logger.Logger) StoryRepo {
	return &storyRepo{db: db, log: baseLog.With("repo", "StoryRepo")}
}

func (sr *storyRepo) Create(ctx context.Context, tx *gorm.DB, story *types.Story) (*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if err := transaction.WithContext(ctx).Create(story).Error; err != nil {
		return nil, err
	}
	return story, nil
}

func (sr *storyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var story types.Story
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&story).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

func (sr *storyRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Story, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Story
	if err := transaction.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *storyRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Story{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (sr *storyRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Story{}).Error
}
