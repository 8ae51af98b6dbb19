package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/repos"
	"github.com/inkfall/studio-backend/internal/types"
	"github.com/inkfall/studio-backend/internal/workflow"
)

type storyHarness struct {
	mgr     *jobs.Manager
	runner  *Runner
	svc     StoryService
	stories repos.StoryRepo
	ownerID uuid.UUID
	castID  uuid.UUID
}

func newStoryHarness(t *testing.T, stubs ...*stubAgent) *storyHarness {
	t.Helper()
	log := logger.NewNop()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.Tag{}, &types.Character{}, &types.Story{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mgr := jobs.NewManager(log, nil)
	registry := agents.NewRegistry()
	for _, s := range stubs {
		if err := registry.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.id, err)
		}
	}
	executor := workflow.NewSequentialExecutor(log)
	runner := NewRunner(log, mgr, executor, 2)
	stories := repos.NewStoryRepo(db, log)
	chars := repos.NewCharacterRepo(db, log)

	ownerID := uuid.New()
	cast, err := chars.Create(context.Background(), nil, &types.Character{
		ID: uuid.New(), OwnerUserID: ownerID, Name: "Mira", Description: "A wandering cartographer",
	})
	if err != nil {
		t.Fatalf("create character: %v", err)
	}

	svc := NewStoryService(log, mgr, runner, executor, registry, stories, chars)
	return &storyHarness{mgr: mgr, runner: runner, svc: svc, stories: stories, ownerID: ownerID, castID: cast.ID}
}

func storyStubs() []*stubAgent {
	return []*stubAgent{
		{id: "story_outliner", fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
			if in["premise"] == nil {
				return nil, fmt.Errorf("outliner got no premise")
			}
			return map[string]any{
				"title":   "The Unmapped Coast",
				"logline": "A cartographer charts a shore that keeps moving.",
				"scenes":  []any{map[string]any{"heading": "Arrival", "summary": "..."}},
			}, nil
		}},
		{id: "story_writer", fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
			outline, _ := in["outline"].(map[string]any)
			if outline == nil {
				return nil, fmt.Errorf("writer got no outline")
			}
			return map[string]any{
				"generated_written_story": map[string]any{
					"title":   outline["title"],
					"content": "The tide had opinions about geography...",
				},
			}, nil
		}},
		{id: "scene_illustrator", fn: func(context.Context, map[string]any) (map[string]any, error) {
			return map[string]any{"image_url": "https://img.example/cover.png"}, nil
		}},
	}
}

func TestStoryGenerationPausesOnOutline(t *testing.T) {
	h := newStoryHarness(t, storyStubs()...)
	ctx := context.Background()

	jobID, err := h.svc.StartGeneration(ctx, h.ownerID, "A coast that moves", []uuid.UUID{h.castID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.runner.Wait()

	job, err := h.mgr.GetJob(jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != jobs.StatusAwaitingInput {
		t.Fatalf("status = %q (%s), want awaiting_input", job.Status, job.Error)
	}
	outline, _ := job.AwaitingData["outline"].(map[string]any)
	if outline == nil || outline["title"] != "The Unmapped Coast" {
		t.Fatalf("awaiting outline = %#v", job.AwaitingData)
	}
	if job.BriefCard == nil {
		t.Fatal("paused job carries no brief card")
	}
}

func TestStoryApproveWritesAndPersists(t *testing.T) {
	h := newStoryHarness(t, storyStubs()...)
	ctx := context.Background()

	jobID, err := h.svc.StartGeneration(ctx, h.ownerID, "A coast that moves", []uuid.UUID{h.castID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.runner.Wait()

	if _, err := h.svc.ResumeOutline(ctx, jobID, jobs.ResumeInput{Action: "approve"}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	h.runner.Wait()

	job, _ := h.mgr.GetJob(jobID)
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q (%s), want completed", job.Status, job.Error)
	}
	storyID, err := uuid.Parse(fmt.Sprint(job.Result["story_id"]))
	if err != nil {
		t.Fatalf("result story_id = %#v", job.Result)
	}

	story, err := h.stories.GetByID(ctx, nil, storyID)
	if err != nil {
		t.Fatalf("load story: %v", err)
	}
	if story.Title != "The Unmapped Coast" {
		t.Fatalf("title = %q", story.Title)
	}
	if story.Content == "" {
		t.Fatal("persisted story has no content")
	}
	if story.CoverURL != "https://img.example/cover.png" {
		t.Fatalf("cover = %q", story.CoverURL)
	}
	if story.Premise != "A coast that moves" {
		t.Fatalf("premise = %q", story.Premise)
	}
}

func TestStoryEditedOutlineFeedsWriter(t *testing.T) {
	var sawTitle any
	stubs := storyStubs()
	stubs[1] = &stubAgent{id: "story_writer", fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
		outline, _ := in["outline"].(map[string]any)
		sawTitle = outline["title"]
		return map[string]any{
			"generated_written_story": map[string]any{"title": outline["title"], "content": "..."},
		}, nil
	}}
	h := newStoryHarness(t, stubs...)
	ctx := context.Background()

	jobID, err := h.svc.StartGeneration(ctx, h.ownerID, "premise", []uuid.UUID{h.castID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.runner.Wait()

	edited := map[string]any{
		"outline": map[string]any{"title": "Retitled by Hand", "scenes": []any{}},
	}
	if _, err := h.svc.ResumeOutline(ctx, jobID, jobs.ResumeInput{Action: "edit", EditedData: edited}); err != nil {
		t.Fatalf("resume edit: %v", err)
	}
	h.runner.Wait()

	if sawTitle != "Retitled by Hand" {
		t.Fatalf("writer saw outline title %v, want the edited one", sawTitle)
	}
}

func TestStoryCancelEndsJobWithoutPersisting(t *testing.T) {
	h := newStoryHarness(t, storyStubs()...)
	ctx := context.Background()

	jobID, err := h.svc.StartGeneration(ctx, h.ownerID, "premise", []uuid.UUID{h.castID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.runner.Wait()

	job, err := h.svc.ResumeOutline(ctx, jobID, jobs.ResumeInput{Action: "cancel"})
	if err != nil {
		t.Fatalf("resume cancel: %v", err)
	}
	if job.Status != jobs.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", job.Status)
	}

	stories, err := h.svc.List(ctx, h.ownerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stories) != 0 {
		t.Fatalf("stories persisted after cancel: %d", len(stories))
	}
	h.runner.Wait()
}

func TestStoryRejectsForeignCharacters(t *testing.T) {
	h := newStoryHarness(t, storyStubs()...)
	if _, err := h.svc.StartGeneration(context.Background(), uuid.New(), "premise", []uuid.UUID{h.castID}); err == nil {
		t.Fatal("story started with characters the user does not own")
	}
}
