package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Story struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Premise     string    `gorm:"column:premise;type:text" json:"premise"`
	// Outline is the approved scene outline; Content the generated prose.
	Outline      datatypes.JSON `gorm:"column:outline;type:jsonb" json:"outline"`
	Content      string         `gorm:"column:content;type:text" json:"content"`
	CoverURL     string         `gorm:"column:cover_url" json:"cover_url"`
	CharacterIDs datatypes.JSON `gorm:"column:character_ids;type:jsonb" json:"character_ids"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Story) TableName() string { return "story" }

func (s *Story) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
