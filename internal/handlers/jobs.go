package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/jobs"
)

type JobsHandler struct {
	mgr *jobs.Manager
}

func NewJobsHandler(mgr *jobs.Manager) *JobsHandler {
	return &JobsHandler{mgr: mgr}
}

// GET /api/jobs/:id
func (h *JobsHandler) GetJobByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.mgr.GetJob(jobID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// GET /api/jobs
func (h *JobsHandler) ListJobs(c *gin.Context) {
	RespondOK(c, gin.H{"jobs": h.mgr.ListJobs()})
}

// POST /api/jobs/:id/cancel
func (h *JobsHandler) CancelJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	if err := h.mgr.CancelJob(jobID); err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			RespondError(c, http.StatusNotFound, "job_not_found", err)
		case errors.Is(err, jobs.ErrNotCancelable):
			RespondError(c, http.StatusConflict, "not_cancelable", err)
		case jobs.IsInvalidTransition(err):
			RespondError(c, http.StatusConflict, "already_finished", err)
		default:
			RespondError(c, http.StatusInternalServerError, "cancel_failed", err)
		}
		return
	}
	job, err := h.mgr.GetJob(jobID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}
