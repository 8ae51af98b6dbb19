package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Outfit struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	CharacterID *uuid.UUID `gorm:"type:uuid;index" json:"character_id,omitempty"`
	Name        string     `gorm:"not null;column:name" json:"name"`
	Description string     `gorm:"column:description;type:text" json:"description"`
	// Palette holds the extracted color palette, Pieces the itemized garment list.
	Palette  datatypes.JSON `gorm:"column:palette;type:jsonb" json:"palette"`
	Pieces   datatypes.JSON `gorm:"column:pieces;type:jsonb" json:"pieces"`
	ImageURL string         `gorm:"column:image_url" json:"image_url"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Outfit) TableName() string { return "outfit" }

func (o *Outfit) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
