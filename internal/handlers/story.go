package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/requestdata"
	"github.com/inkfall/studio-backend/internal/services"
)

type StoryHandler struct {
	stories services.StoryService
}

func NewStoryHandler(stories services.StoryService) *StoryHandler {
	return &StoryHandler{stories: stories}
}

type generateStoryBody struct {
	Premise      string      `json:"premise" binding:"required"`
	CharacterIDs []uuid.UUID `json:"character_ids"`
}

// POST /api/stories/generate
func (h *StoryHandler) Generate(c *gin.Context) {
	var body generateStoryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	jobID, err := h.stories.StartGeneration(c.Request.Context(), requestdata.UserID(c.Request.Context()), body.Premise, body.CharacterIDs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "generate_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}

// POST /api/stories/resume/:job_id
func (h *StoryHandler) ResumeOutline(c *gin.Context) {
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
	job, err := h.stories.ResumeOutline(c.Request.Context(), jobID, input)
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

// GET /api/stories
func (h *StoryHandler) List(c *gin.Context) {
	stories, err := h.stories.List(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"stories": stories})
}

// GET /api/stories/:id
func (h *StoryHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	story, err := h.stories.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, gin.H{"story": story})
}

// DELETE /api/stories/:id
func (h *StoryHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.stories.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
