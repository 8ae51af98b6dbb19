package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BoardGame struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	// BGGID links the record to its BoardGameGeek thing id; 0 means unlinked.
	BGGID         int    `gorm:"column:bgg_id;index" json:"bgg_id"`
	Name          string `gorm:"not null;column:name;index" json:"name"`
	Description   string `gorm:"column:description;type:text" json:"description"`
	YearPublished int    `gorm:"column:year_published" json:"year_published"`
	MinPlayers    int    `gorm:"column:min_players" json:"min_players"`
	MaxPlayers    int    `gorm:"column:max_players" json:"max_players"`
	PlayTimeMins  int    `gorm:"column:play_time_mins" json:"play_time_mins"`
	ThumbnailURL  string `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	// Profile holds AI-generated flavor analysis (theme, tone, suggested characters).
	Profile datatypes.JSON `gorm:"column:profile;type:jsonb" json:"profile"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (BoardGame) TableName() string { return "board_game" }

func (b *BoardGame) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
