package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VisualizationConfig struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	// Layout selects the preview template (card, banner, grid).
	Layout  string         `gorm:"column:layout;not null" json:"layout"`
	Options datatypes.JSON `gorm:"column:options;type:jsonb" json:"options"`
	// PreviewURL points at the most recently rendered preview image.
	PreviewURL string `gorm:"column:preview_url" json:"preview_url"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (VisualizationConfig) TableName() string { return "visualization_config" }

func (v *VisualizationConfig) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
