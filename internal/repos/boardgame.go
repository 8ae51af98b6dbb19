package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
)

type BoardGameRepo interface {
	Create(ctx context.Context, tx *gorm.DB, game *types.BoardGame) (*types.BoardGame, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BoardGame, error)
	GetByBGGID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, bggID int) (*types.BoardGame, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.BoardGame, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type boardGameRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBoardGameRepo(db *gorm.DB, baseLog *logger.Logger) BoardGameRepo {
	return &boardGameRepo{db: db, log: baseLog.With("repo", "BoardGameRepo")}
}

func (br *boardGameRepo) Create(ctx context.Context, tx *gorm.DB, game *types.BoardGame) (*types.BoardGame, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if err := transaction.WithContext(ctx).Create(game).Error; err != nil {
		return nil, err
	}
	return game, nil
}

func (br *boardGameRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BoardGame, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var game types.BoardGame
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (br *boardGameRepo) GetByBGGID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, bggID int) (*types.BoardGame, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var game types.BoardGame
	if err := transaction.WithContext(ctx).
		Where("owner_user_id = ? AND bgg_id = ?", ownerID, bggID).
		First(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (br *boardGameRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.BoardGame, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var results []*types.BoardGame
	if err := transaction.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (br *boardGameRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.BoardGame{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (br *boardGameRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.BoardGame{}).Error
}
