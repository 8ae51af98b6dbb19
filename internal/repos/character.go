package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
)

type CharacterRepo interface {
	Create(ctx context.Context, tx *gorm.DB, character *types.Character) (*types.Character, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Character, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Character, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	ReplaceTags(ctx context.Context, tx *gorm.DB, character *types.Character, tags []types.Tag) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type characterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacterRepo(db *gorm.DB, baseLog *logger.Logger) CharacterRepo {
	return &characterRepo{db: db, log: baseLog.With("repo", "CharacterRepo")}
}

func (cr *characterRepo) Create(ctx context.Context, tx *gorm.DB, character *types.Character) (*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(character).Error; err != nil {
		return nil, err
	}
	return character, nil
}

func (cr *characterRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var character types.Character
	if err := transaction.WithContext(ctx).
		Preload("Tags").
		Where("id = ?", id).
		First(&character).Error; err != nil {
		return nil, err
	}
	return &character, nil
}

func (cr *characterRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Character, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Character
	if err := transaction.WithContext(ctx).
		Preload("Tags").
		Where("owner_user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *characterRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Character{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (cr *characterRepo) ReplaceTags(ctx context.Context, tx *gorm.DB, character *types.Character, tags []types.Tag) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(character).
		Association("Tags").
		Replace(tags)
}

func (cr *characterRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Character{}).Error
}
