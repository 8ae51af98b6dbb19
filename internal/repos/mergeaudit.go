package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
)

type MergeAuditRepo interface {
	Create(ctx context.Context, tx *gorm.DB, audit *types.MergeAudit) (*types.MergeAudit, error)
	ListByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.MergeAudit, error)
	ListByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) ([]*types.MergeAudit, error)
}

type mergeAuditRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMergeAuditRepo(db *gorm.DB, baseLog *logger.Logger) MergeAuditRepo {
	return &mergeAuditRepo{db: db, log: baseLog.With("repo", "MergeAuditRepo")}
}

func (mr *mergeAuditRepo) Create(ctx context.Context, tx *gorm.DB, audit *types.MergeAudit) (*types.MergeAudit, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if err := transaction.WithContext(ctx).Create(audit).Error; err != nil {
		return nil, err
	}
	return audit, nil
}

func (mr *mergeAuditRepo) ListByJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) ([]*types.MergeAudit, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.MergeAudit
	if err := transaction.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *mergeAuditRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) ([]*types.MergeAudit, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.MergeAudit
	if err := transaction.WithContext(ctx).
		Where("entity_type = ? AND (source_id = ? OR target_id = ?)", entityType, entityID, entityID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
