package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inkfall/studio-backend/internal/agents"
	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/repos"
	"github.com/inkfall/studio-backend/internal/types"
)

/*
MergeService runs the human-in-the-loop merge of two duplicate records.

The flow is deliberately split around the pause: the analysis job produces a
merge proposal and parks in awaiting_input; nothing is written until a human
resumes with approve or edit. The commit (update target, soft-delete source,
audit row) happens inside one transaction in the resume continuation, so a
crash between approval and commit can never leave a half-merged pair.
*/
type MergeService interface {
	StartCharacterMerge(ctx context.Context, ownerID, sourceID, targetID uuid.UUID) (uuid.UUID, error)
	Resume(ctx context.Context, jobID uuid.UUID, input jobs.ResumeInput) (*jobs.Job, error)
}

type mergeService struct {
	log        *logger.Logger
	db         *gorm.DB
	mgr        *jobs.Manager
	runner     *Runner
	registry   *agents.Registry
	characters repos.CharacterRepo
	audits     repos.MergeAuditRepo
}

func NewMergeService(
	baseLog *logger.Logger,
	db *gorm.DB,
	mgr *jobs.Manager,
	runner *Runner,
	registry *agents.Registry,
	characters repos.CharacterRepo,
	audits repos.MergeAuditRepo,
) MergeService {
	return &mergeService{
		log:        baseLog.With("service", "MergeService"),
		db:         db,
		mgr:        mgr,
		runner:     runner,
		registry:   registry,
		characters: characters,
		audits:     audits,
	}
}

func (s *mergeService) StartCharacterMerge(ctx context.Context, ownerID, sourceID, targetID uuid.UUID) (uuid.UUID, error) {
	if sourceID == targetID {
		return uuid.Nil, fmt.Errorf("cannot merge a character into itself")
	}
	source, err := s.characters.GetByID(ctx, nil, sourceID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load source character: %w", err)
	}
	target, err := s.characters.GetByID(ctx, nil, targetID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load target character: %w", err)
	}
	if source.OwnerUserID != ownerID || target.OwnerUserID != ownerID {
		return uuid.Nil, fmt.Errorf("characters do not belong to the requesting user")
	}

	jobID := s.mgr.CreateJob(jobs.CreateParams{
		Type:        jobs.TypeMerge,
		Title:       fmt.Sprintf("Merge %q into %q", source.Name, target.Name),
		Description: "Propose a merged character record and wait for approval",
		StepsTotal:  2,
		Cancelable:  true,
		Metadata: map[string]any{
			"owner_user_id": ownerID.String(),
			"entity_type":   "character",
			"source_id":     sourceID.String(),
			"target_id":     targetID.String(),
		},
	})

	sourceData := characterToMap(source)
	targetData := characterToMap(target)
	s.runner.Go(jobID, func(ctx context.Context) (map[string]any, error) {
		_ = s.mgr.UpdateProgress(jobID, 0.25, "Analyzing both records", "analyze")
		analyst, ok := s.registry.Get("merge_analyst")
		if !ok {
			return nil, fmt.Errorf("merge_analyst agent not registered")
		}
		proposal, err := analyst.Execute(ctx, map[string]any{
			"entity_type": "character",
			"source":      sourceData,
			"target":      targetData,
		})
		if err != nil {
			return nil, err
		}
		card := &jobs.BriefCard{
			Title:       "Review merge proposal",
			Description: fmt.Sprintf("Merging %q into %q is destructive. Review the proposed record before it is committed.", sourceData["name"], targetData["name"]),
			Actions:     []string{"approve", "edit", "cancel"},
		}
		if err := s.mgr.PauseForInput(jobID, proposal, card); err != nil {
			return nil, err
		}
		return nil, ErrJobPaused
	})
	return jobID, nil
}

/*
Resume applies the human decision on a paused merge job. Validation happens
before the state transition so a bad action never consumes the single
awaiting_input slot; after ResumeWithInput succeeds the decision is final
and a second call fails with InvalidTransition.
*/
func (s *mergeService) Resume(ctx context.Context, jobID uuid.UUID, input jobs.ResumeInput) (*jobs.Job, error) {
	switch input.Action {
	case "approve", "edit", "cancel":
	default:
		return nil, fmt.Errorf("unsupported resume action %q", input.Action)
	}
	if input.Action == "edit" && len(input.EditedData) == 0 {
		return nil, fmt.Errorf("action edit requires edited_data")
	}

	job, err := s.mgr.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	ownerID, err := uuidFromMeta(job.Metadata, "owner_user_id")
	if err != nil {
		return nil, err
	}
	sourceID, err := uuidFromMeta(job.Metadata, "source_id")
	if err != nil {
		return nil, err
	}
	targetID, err := uuidFromMeta(job.Metadata, "target_id")
	if err != nil {
		return nil, err
	}

	res, err := s.mgr.ResumeWithInput(jobID, input)
	if err != nil {
		return nil, err
	}

	if input.Action == "cancel" {
		// Cancels are audited too; a declined destructive merge is a decision
		// worth tracing.
		if err := s.writeAudit(ctx, nil, ownerID, jobID, sourceID, targetID, "cancel", mergedDataOf(res)); err != nil {
			s.log.Error("Failed to audit merge cancel", "job_id", jobID, "error", err)
		}
		return s.mgr.GetJob(jobID)
	}

	mergedData := mergedDataOf(res)
	if input.Action == "edit" {
		mergedData = res.Input.EditedData
	}
	s.runner.Continue(jobID, func(ctx context.Context) (map[string]any, error) {
		_ = s.mgr.UpdateProgress(jobID, 0.75, "Committing merge", "commit")
		var auditID uuid.UUID
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			fields, err := characterFieldsFrom(mergedData)
			if err != nil {
				return err
			}
			if err := s.characters.UpdateFields(ctx, tx, targetID, fields); err != nil {
				return fmt.Errorf("update target: %w", err)
			}
			if err := s.characters.SoftDelete(ctx, tx, sourceID); err != nil {
				return fmt.Errorf("retire source: %w", err)
			}
			auditID = uuid.New()
			return s.writeAuditTx(ctx, tx, auditID, ownerID, jobID, sourceID, targetID, input.Action, mergedData)
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"merged_entity_id":  targetID.String(),
			"retired_entity_id": sourceID.String(),
			"audit_id":          auditID.String(),
			"action":            input.Action,
		}, nil
	})
	return s.mgr.GetJob(jobID)
}

func (s *mergeService) writeAudit(ctx context.Context, tx *gorm.DB, ownerID, jobID, sourceID, targetID uuid.UUID, action string, merged map[string]any) error {
	return s.writeAuditTx(ctx, tx, uuid.New(), ownerID, jobID, sourceID, targetID, action, merged)
}

func (s *mergeService) writeAuditTx(ctx context.Context, tx *gorm.DB, auditID, ownerID, jobID, sourceID, targetID uuid.UUID, action string, merged map[string]any) error {
	payload, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal merged data: %w", err)
	}
	_, err = s.audits.Create(ctx, tx, &types.MergeAudit{
		ID:          auditID,
		OwnerUserID: ownerID,
		JobID:       jobID,
		EntityType:  "character",
		SourceID:    sourceID,
		TargetID:    targetID,
		Action:      action,
		MergedData:  datatypes.JSON(payload),
	})
	return err
}

// mergedDataOf pulls the proposal out of the pause payload the job carried.
func mergedDataOf(res *jobs.Resumption) map[string]any {
	if res == nil {
		return nil
	}
	if m, ok := res.AwaitingData["merged_data"].(map[string]any); ok {
		return m
	}
	return nil
}

// characterFieldsFrom maps a merge proposal onto character columns. Unknown
// keys are dropped rather than rejected; the analyst is allowed to say more
// than the schema stores.
func characterFieldsFrom(merged map[string]any) (map[string]any, error) {
	fields := make(map[string]any, 3)
	if name, ok := merged["name"].(string); ok && name != "" {
		fields["name"] = name
	}
	if desc, ok := merged["description"].(string); ok {
		fields["description"] = desc
	}
	if traits, ok := merged["traits"]; ok && traits != nil {
		raw, err := json.Marshal(traits)
		if err != nil {
			return nil, fmt.Errorf("marshal traits: %w", err)
		}
		fields["traits"] = datatypes.JSON(raw)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("merge proposal carries no usable fields")
	}
	return fields, nil
}

func characterToMap(c *types.Character) map[string]any {
	out := map[string]any{
		"id":          c.ID.String(),
		"name":        c.Name,
		"description": c.Description,
	}
	if len(c.Traits) > 0 {
		var traits any
		if err := json.Unmarshal(c.Traits, &traits); err == nil {
			out["traits"] = traits
		}
	}
	return out
}

func uuidFromMeta(meta map[string]any, key string) (uuid.UUID, error) {
	raw, ok := meta[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("job metadata missing %s", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("job metadata %s: %w", key, err)
	}
	return id, nil
}
