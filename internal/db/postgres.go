package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
	"github.com/inkfall/studio-backend/internal/utils"
)

type PostgresService struct {
	DB  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(baseLog *logger.Logger) (*PostgresService, error) {
	log := baseLog.With("component", "PostgresService")
	dsn := utils.GetEnv("DATABASE_DSN", "", log)
	if dsn == "" {
		return nil, fmt.Errorf("missing DATABASE_DSN")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresService{DB: gdb, log: log}, nil
}

// Migrate ensures every table. Idempotent.
func (p *PostgresService) Migrate() error {
	if err := p.DB.AutoMigrate(
		&types.User{},
		&types.Tag{},
		&types.Character{},
		&types.Outfit{},
		&types.BoardGame{},
		&types.Story{},
		&types.VisualizationConfig{},
		&types.MergeAudit{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	p.log.Info("Database migrated")
	return nil
}

func (p *PostgresService) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
