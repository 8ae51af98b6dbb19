package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
)

type OutfitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, outfit *types.Outfit) (*types.Outfit, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Outfit, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Outfit, error)
	ListByCharacter(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.Outfit, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type outfitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutfitRepo(db *gorm.DB, baseLog *logger.Logger) OutfitRepo {
	return &outfitRepo{db: db, log: baseLog.With("repo", "OutfitRepo")}
}

func (or *outfitRepo) Create(ctx context.Context, tx *gorm.DB, outfit *types.Outfit) (*types.Outfit, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	if err := transaction.WithContext(ctx).Create(outfit).Error; err != nil {
		return nil, err
	}
	return outfit, nil
}

func (or *outfitRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Outfit, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	var outfit types.Outfit
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&outfit).Error; err != nil {
		return nil, err
	}
	return &outfit, nil
}

func (or *outfitRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Outfit, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	var results []*types.Outfit
	if err := transaction.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (or *outfitRepo) ListByCharacter(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) ([]*types.Outfit, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	var results []*types.Outfit
	if err := transaction.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (or *outfitRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Outfit{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (or *outfitRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Outfit{}).Error
}
