package app

import (
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/repos"
)

type Repos struct {
	User                repos.UserRepo
	Character           repos.CharacterRepo
	Outfit              repos.OutfitRepo
	BoardGame           repos.BoardGameRepo
	Story               repos.StoryRepo
	VisualizationConfig repos.VisualizationConfigRepo
	Tag                 repos.TagRepo
	MergeAudit          repos.MergeAuditRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:                repos.NewUserRepo(db, log),
		Character:           repos.NewCharacterRepo(db, log),
		Outfit:              repos.NewOutfitRepo(db, log),
		BoardGame:           repos.NewBoardGameRepo(db, log),
		Story:               repos.NewStoryRepo(db, log),
		VisualizationConfig: repos.NewVisualizationConfigRepo(db, log),
		Tag:                 repos.NewTagRepo(db, log),
		MergeAudit:          repos.NewMergeAuditRepo(db, log),
	}
}
