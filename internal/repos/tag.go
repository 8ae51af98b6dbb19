package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
)

type TagRepo interface {
	// GetOrCreate resolves tag names to rows, creating any that do not exist.
	// Names are trimmed and lowercased before lookup.
	GetOrCreate(ctx context.Context, tx *gorm.DB, names []string) ([]types.Tag, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Tag, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (tr *tagRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, names []string) ([]types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	normalized := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		normalized = append(normalized, name)
	}
	if len(normalized) == 0 {
		return []types.Tag{}, nil
	}

	rows := make([]types.Tag, len(normalized))
	for i, name := range normalized {
		rows[i] = types.Tag{ID: uuid.New(), Name: name}
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error; err != nil {
		return nil, err
	}

	// Re-read so rows that hit the conflict path carry their real ids.
	var tags []types.Tag
	if err := transaction.WithContext(ctx).
		Where("name IN ?", normalized).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (tr *tagRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Tag, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Tag
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *tagRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Tag{}).Error
}
