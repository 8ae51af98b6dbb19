package repos

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/types"
)

// newTestDB opens a per-test in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Tag{},
		&types.Character{},
		&types.Outfit{},
		&types.BoardGame{},
		&types.Story{},
		&types.VisualizationConfig{},
		&types.MergeAudit{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCharacterLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewCharacterRepo(db, logger.NewNop())
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, nil, &types.Character{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Name:        "Mira",
		Description: "A wandering cartographer",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Mira" {
		t.Fatalf("name = %q", got.Name)
	}

	if err := repo.UpdateFields(ctx, nil, created.ID, map[string]any{"description": "Updated"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = repo.GetByID(ctx, nil, created.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Description != "Updated" {
		t.Fatalf("description = %q, update not applied", got.Description)
	}

	if err := repo.SoftDelete(ctx, nil, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, nil, created.ID); err == nil {
		t.Fatal("soft-deleted character still readable")
	}
	list, err := repo.ListByOwner(ctx, nil, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("list after delete = %d rows, want 0", len(list))
	}
}

func TestCharacterTagsReplace(t *testing.T) {
	db := newTestDB(t)
	chars := NewCharacterRepo(db, logger.NewNop())
	tags := NewTagRepo(db, logger.NewNop())
	ctx := context.Background()

	char, err := chars.Create(ctx, nil, &types.Character{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		Name:        "Tull",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := tags.GetOrCreate(ctx, nil, []string{"Hero", " villain "})
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if err := chars.ReplaceTags(ctx, nil, char, first); err != nil {
		t.Fatalf("replace tags: %v", err)
	}

	got, err := chars.GetByID(ctx, nil, char.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("tags = %d, want 2", len(got.Tags))
	}

	if err := chars.ReplaceTags(ctx, nil, char, first[:1]); err != nil {
		t.Fatalf("replace down to one: %v", err)
	}
	got, err = chars.GetByID(ctx, nil, char.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Tags) != 1 {
		t.Fatalf("tags after replace = %d, want 1", len(got.Tags))
	}
}

func TestTagGetOrCreateNormalizesAndDedupes(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepo(db, logger.NewNop())
	ctx := context.Background()

	got, err := repo.GetOrCreate(ctx, nil, []string{"Fantasy", "fantasy", "  FANTASY ", "", "noir"})
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tags = %d, want 2 (fantasy, noir)", len(got))
	}

	again, err := repo.GetOrCreate(ctx, nil, []string{"fantasy"})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("repeat lookup = %d rows", len(again))
	}
}

func TestMergeAuditListByEntity(t *testing.T) {
	db := newTestDB(t)
	repo := NewMergeAuditRepo(db, logger.NewNop())
	ctx := context.Background()

	source, target := uuid.New(), uuid.New()
	if _, err := repo.Create(ctx, nil, &types.MergeAudit{
		ID:          uuid.New(),
		OwnerUserID: uuid.New(),
		JobID:       uuid.New(),
		EntityType:  "character",
		SourceID:    source,
		TargetID:    target,
		Action:      "approve",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	bySource, err := repo.ListByEntity(ctx, nil, "character", source)
	if err != nil {
		t.Fatalf("list by source: %v", err)
	}
	if len(bySource) != 1 {
		t.Fatalf("by source = %d rows, want 1", len(bySource))
	}
	byTarget, err := repo.ListByEntity(ctx, nil, "character", target)
	if err != nil {
		t.Fatalf("list by target: %v", err)
	}
	if len(byTarget) != 1 {
		t.Fatalf("by target = %d rows, want 1", len(byTarget))
	}
	other, err := repo.ListByEntity(ctx, nil, "outfit", source)
	if err != nil {
		t.Fatalf("list other type: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("wrong entity type matched: %d rows", len(other))
	}
}

func TestOutfitListByCharacter(t *testing.T) {
	db := newTestDB(t)
	repo := NewOutfitRepo(db, logger.NewNop())
	ctx := context.Background()
	owner := uuid.New()
	charID := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := repo.Create(ctx, nil, &types.Outfit{
			ID:          uuid.New(),
			OwnerUserID: owner,
			CharacterID: &charID,
			Name:        fmt.Sprintf("Look %d", i+1),
		}); err != nil {
			t.Fatalf("create outfit %d: %v", i, err)
		}
	}
	if _, err := repo.Create(ctx, nil, &types.Outfit{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Name:        "Unattached",
	}); err != nil {
		t.Fatalf("create unattached: %v", err)
	}

	got, err := repo.ListByCharacter(ctx, nil, charID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("outfits = %d, want 2", len(got))
	}
}

func TestCreateFillsIDAndTimestamps(t *testing.T) {
	db := newTestDB(t)
	repo := NewCharacterRepo(db, logger.NewNop())

	// No ID set: the model hook must assign one on any driver.
	created, err := repo.Create(context.Background(), nil, &types.Character{
		OwnerUserID: uuid.New(),
		Name:        "Unkeyed",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("ID not assigned on create")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not filled: created_at=%v updated_at=%v", created.CreatedAt, created.UpdatedAt)
	}

	got, err := repo.GetByID(context.Background(), nil, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Unkeyed" {
		t.Fatalf("name = %q, want %q", got.Name, "Unkeyed")
	}
}
