package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Character struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Name        string    `gorm:"not null;column:name;index" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	// Traits is the accumulated AI analysis output (personality, style, palette).
	Traits    datatypes.JSON `gorm:"column:traits;type:jsonb" json:"traits"`
	AvatarURL string         `gorm:"column:avatar_url" json:"avatar_url"`
	Tags      []Tag          `gorm:"many2many:character_tag" json:"tags,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Character) TableName() string { return "character" }

func (c *Character) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
