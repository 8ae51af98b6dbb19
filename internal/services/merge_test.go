package services

import (
	"context"
	"encoding/json"
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

type mergeHarness struct {
	db      *gorm.DB
	mgr     *jobs.Manager
	runner  *Runner
	svc     MergeService
	chars   repos.CharacterRepo
	audits  repos.MergeAuditRepo
	ownerID uuid.UUID
	source  *types.Character
	target  *types.Character
}

func newMergeHarness(t *testing.T, analyst *stubAgent) *mergeHarness {
	t.Helper()
	log := logger.NewNop()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.Tag{}, &types.Character{}, &types.MergeAudit{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mgr := jobs.NewManager(log, nil)
	registry := agents.NewRegistry()
	if analyst != nil {
		if err := registry.Register(analyst); err != nil {
			t.Fatalf("register analyst: %v", err)
		}
	}
	runner := NewRunner(log, mgr, workflow.NewSequentialExecutor(log), 2)
	chars := repos.NewCharacterRepo(db, log)
	audits := repos.NewMergeAuditRepo(db, log)
	svc := NewMergeService(log, db, mgr, runner, registry, chars, audits)

	ownerID := uuid.New()
	ctx := context.Background()
	source, err := chars.Create(ctx, nil, &types.Character{
		ID: uuid.New(), OwnerUserID: ownerID, Name: "Mira (dup)", Description: "Shorter bio",
	})
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	target, err := chars.Create(ctx, nil, &types.Character{
		ID: uuid.New(), OwnerUserID: ownerID, Name: "Mira", Description: "The canonical bio",
	})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	return &mergeHarness{
		db: db, mgr: mgr, runner: runner, svc: svc,
		chars: chars, audits: audits,
		ownerID: ownerID, source: source, target: target,
	}
}

func proposalAnalyst(merged map[string]any) *stubAgent {
	return &stubAgent{id: "merge_analyst", fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
		if in["source"] == nil || in["target"] == nil {
			return nil, fmt.Errorf("analyst input incomplete: %#v", in)
		}
		return map[string]any{
			"merged_data": merged,
			"confidence":  0.9,
			"rationale":   "target has the richer record",
		}, nil
	}}
}

func TestMergeApproveCommitsAndAudits(t *testing.T) {
	merged := map[string]any{
		"name":        "Mira",
		"description": "The canonical bio, with details from the duplicate",
		"traits":      map[string]any{"profile": "stoic"},
	}
	h := newMergeHarness(t, proposalAnalyst(merged))
	ctx := context.Background()

	jobID, err := h.svc.StartCharacterMerge(ctx, h.ownerID, h.source.ID, h.target.ID)
	if err != nil {
		t.Fatalf("start merge: %v", err)
	}
	h.runner.Wait()

	job, err := h.mgr.GetJob(jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != jobs.StatusAwaitingInput {
		t.Fatalf("status = %q (%s), want awaiting_input", job.Status, job.Error)
	}
	if job.AwaitingData["merged_data"] == nil {
		t.Fatalf("awaiting data carries no proposal: %#v", job.AwaitingData)
	}
	if job.BriefCard == nil || len(job.BriefCard.Actions) != 3 {
		t.Fatalf("brief card = %#v, want approve/edit/cancel", job.BriefCard)
	}

	if _, err := h.svc.Resume(ctx, jobID, jobs.ResumeInput{Action: "approve"}); err != nil {
		t.Fatalf("resume approve: %v", err)
	}
	h.runner.Wait()

	job, _ = h.mgr.GetJob(jobID)
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q (%s), want completed", job.Status, job.Error)
	}
	if job.Result["merged_entity_id"] != h.target.ID.String() {
		t.Fatalf("result = %#v", job.Result)
	}

	target, err := h.chars.GetByID(ctx, nil, h.target.ID)
	if err != nil {
		t.Fatalf("reload target: %v", err)
	}
	if target.Description != merged["description"] {
		t.Fatalf("target description = %q, merge not applied", target.Description)
	}
	var traits map[string]any
	if err := json.Unmarshal(target.Traits, &traits); err != nil || traits["profile"] != "stoic" {
		t.Fatalf("target traits = %s", target.Traits)
	}

	if _, err := h.chars.GetByID(ctx, nil, h.source.ID); err == nil {
		t.Fatal("source character still readable after merge")
	}

	audits, err := h.audits.ListByJob(ctx, nil, jobID)
	if err != nil {
		t.Fatalf("list audits: %v", err)
	}
	if len(audits) != 1 {
		t.Fatalf("audits = %d rows, want 1", len(audits))
	}
	if audits[0].Action != "approve" || audits[0].SourceID != h.source.ID || audits[0].TargetID != h.target.ID {
		t.Fatalf("audit row = %+v", audits[0])
	}
}

func TestMergeEditUsesReviewerData(t *testing.T) {
	h := newMergeHarness(t, proposalAnalyst(map[string]any{"name": "Mira", "description": "AI draft"}))
	ctx := context.Background()

	jobID, err := h.svc.StartCharacterMerge(ctx, h.ownerID, h.source.ID, h.target.ID)
	if err != nil {
		t.Fatalf("start merge: %v", err)
	}
	h.runner.Wait()

	edited := map[string]any{"name": "Mira", "description": "Human-corrected bio"}
	if _, err := h.svc.Resume(ctx, jobID, jobs.ResumeInput{Action: "edit", EditedData: edited}); err != nil {
		t.Fatalf("resume edit: %v", err)
	}
	h.runner.Wait()

	target, err := h.chars.GetByID(ctx, nil, h.target.ID)
	if err != nil {
		t.Fatalf("reload target: %v", err)
	}
	if target.Description != "Human-corrected bio" {
		t.Fatalf("target description = %q, edit ignored", target.Description)
	}
	audits, _ := h.audits.ListByJob(ctx, nil, jobID)
	if len(audits) != 1 || audits[0].Action != "edit" {
		t.Fatalf("audit = %+v", audits)
	}
}

func TestMergeCancelWritesNothingButAudits(t *testing.T) {
	h := newMergeHarness(t, proposalAnalyst(map[string]any{"name": "Mira", "description": "draft"}))
	ctx := context.Background()

	jobID, err := h.svc.StartCharacterMerge(ctx, h.ownerID, h.source.ID, h.target.ID)
	if err != nil {
		t.Fatalf("start merge: %v", err)
	}
	h.runner.Wait()

	job, err := h.svc.Resume(ctx, jobID, jobs.ResumeInput{Action: "cancel"})
	if err != nil {
		t.Fatalf("resume cancel: %v", err)
	}
	if job.Status != jobs.StatusCancelled {
		t.Fatalf("status = %q, want cancelled", job.Status)
	}

	// both characters untouched
	if _, err := h.chars.GetByID(ctx, nil, h.source.ID); err != nil {
		t.Fatalf("source gone after cancel: %v", err)
	}
	target, _ := h.chars.GetByID(ctx, nil, h.target.ID)
	if target.Description != "The canonical bio" {
		t.Fatalf("target mutated on cancel: %q", target.Description)
	}

	audits, _ := h.audits.ListByJob(ctx, nil, jobID)
	if len(audits) != 1 || audits[0].Action != "cancel" {
		t.Fatalf("cancel not audited: %+v", audits)
	}
}

func TestMergeDoubleResumeFails(t *testing.T) {
	h := newMergeHarness(t, proposalAnalyst(map[string]any{"name": "Mira", "description": "draft"}))
	ctx := context.Background()

	jobID, err := h.svc.StartCharacterMerge(ctx, h.ownerID, h.source.ID, h.target.ID)
	if err != nil {
		t.Fatalf("start merge: %v", err)
	}
	h.runner.Wait()

	if _, err := h.svc.Resume(ctx, jobID, jobs.ResumeInput{Action: "approve"}); err != nil {
		t.Fatalf("first resume: %v", err)
	}
	_, err = h.svc.Resume(ctx, jobID, jobs.ResumeInput{Action: "approve"})
	if err == nil {
		t.Fatal("second resume succeeded")
	}
	if !jobs.IsInvalidTransition(err) {
		t.Fatalf("second resume error = %v, want invalid transition", err)
	}
	h.runner.Wait()
}

func TestMergeRejectsUnknownAction(t *testing.T) {
	h := newMergeHarness(t, proposalAnalyst(map[string]any{"name": "Mira"}))
	ctx := context.Background()

	jobID, err := h.svc.StartCharacterMerge(ctx, h.ownerID, h.source.ID, h.target.ID)
	if err != nil {
		t.Fatalf("start merge: %v", err)
	}
	h.runner.Wait()

	if _, err := h.svc.Resume(ctx, jobID, jobs.ResumeInput{Action: "yolo"}); err == nil {
		t.Fatal("unknown action accepted")
	}
	// the bad action must not have consumed the pause
	job, _ := h.mgr.GetJob(jobID)
	if job.Status != jobs.StatusAwaitingInput {
		t.Fatalf("status = %q, want still awaiting_input", job.Status)
	}
}

func TestMergeAnalystFailureFailsJob(t *testing.T) {
	h := newMergeHarness(t, &stubAgent{id: "merge_analyst", fn: func(context.Context, map[string]any) (map[string]any, error) {
		return nil, fmt.Errorf("model unavailable")
	}})
	ctx := context.Background()

	jobID, err := h.svc.StartCharacterMerge(ctx, h.ownerID, h.source.ID, h.target.ID)
	if err != nil {
		t.Fatalf("start merge: %v", err)
	}
	h.runner.Wait()

	job, _ := h.mgr.GetJob(jobID)
	if job.Status != jobs.StatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
}

func TestMergeRejectsForeignCharacters(t *testing.T) {
	h := newMergeHarness(t, proposalAnalyst(map[string]any{"name": "Mira"}))
	if _, err := h.svc.StartCharacterMerge(context.Background(), uuid.New(), h.source.ID, h.target.ID); err == nil {
		t.Fatal("merge started for characters the user does not own")
	}
}

func TestMergeRejectsSelfMerge(t *testing.T) {
	h := newMergeHarness(t, proposalAnalyst(map[string]any{"name": "Mira"}))
	if _, err := h.svc.StartCharacterMerge(context.Background(), h.ownerID, h.source.ID, h.source.ID); err == nil {
		t.Fatal("self-merge accepted")
	}
}
