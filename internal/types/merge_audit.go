package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MergeAudit records every human merge decision, including cancels, so a
// destructive merge can always be traced back to who approved what.
type MergeAudit struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	JobID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	EntityType  string         `gorm:"column:entity_type;not null" json:"entity_type"`
	SourceID    uuid.UUID      `gorm:"type:uuid;not null" json:"source_id"`
	TargetID    uuid.UUID      `gorm:"type:uuid;not null" json:"target_id"`
	Action      string         `gorm:"column:action;not null" json:"action"`
	MergedData  datatypes.JSON `gorm:"column:merged_data;type:jsonb" json:"merged_data"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (MergeAudit) TableName() string { return "merge_audit" }

func (a *MergeAudit) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
