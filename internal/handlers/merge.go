package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/requestdata"
	"github.com/inkfall/studio-backend/internal/services"
)

type MergeHandler struct {
	merge services.MergeService
}

func NewMergeHandler(merge services.MergeService) *MergeHandler {
	return &MergeHandler{merge: merge}
}

type startMergeBody struct {
	SourceID uuid.UUID `json:"source_id" binding:"required"`
	TargetID uuid.UUID `json:"target_id" binding:"required"`
}

// POST /api/merge/characters
func (h *MergeHandler) StartCharacterMerge(c *gin.Context) {
	var body startMergeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ownerID := requestdata.UserID(c.Request.Context())
	jobID, err := h.merge.StartCharacterMerge(c.Request.Context(), ownerID, body.SourceID, body.TargetID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "merge_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}

// POST /api/merge/resume/:job_id
func (h *MergeHandler) Resume(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	var input jobs.ResumeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	job, err := h.merge.Resume(c.Request.Context(), jobID, input)
	if err != nil {
		if jobs.IsInvalidTransition(err) {
			RespondError(c, http.StatusConflict, "not_awaiting_input", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "resume_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}
