package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/requestdata"
	"github.com/inkfall/studio-backend/internal/services"
)

type CharacterHandler struct {
	characters services.CharacterService
	cache      services.ResponseCache
}

func NewCharacterHandler(characters services.CharacterService, cache services.ResponseCache) *CharacterHandler {
	return &CharacterHandler{characters: characters, cache: cache}
}

func (h *CharacterHandler) cacheKey(ownerID uuid.UUID) string {
	return "characters:" + ownerID.String()
}

// POST /api/characters
func (h *CharacterHandler) Create(c *gin.Context) {
	var in services.CharacterCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ownerID := requestdata.UserID(c.Request.Context())
	character, err := h.characters.Create(c.Request.Context(), ownerID, in)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), h.cacheKey(ownerID))
	c.JSON(http.StatusCreated, gin.H{"character": character})
}

// GET /api/characters
func (h *CharacterHandler) List(c *gin.Context) {
	ownerID := requestdata.UserID(c.Request.Context())
	key := h.cacheKey(ownerID)

	var cached []any
	if h.cache.Get(c.Request.Context(), key, &cached) {
		RespondOK(c, gin.H{"characters": cached})
		return
	}
	characters, err := h.characters.List(c.Request.Context(), ownerID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	h.cache.Set(c.Request.Context(), key, characters)
	RespondOK(c, gin.H{"characters": characters})
}

// GET /api/characters/:id
func (h *CharacterHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	character, err := h.characters.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, gin.H{"character": character})
}

// PATCH /api/characters/:id
func (h *CharacterHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var in services.CharacterUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	character, err := h.characters.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), h.cacheKey(requestdata.UserID(c.Request.Context())))
	RespondOK(c, gin.H{"character": character})
}

// DELETE /api/characters/:id
func (h *CharacterHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.characters.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	h.cache.Invalidate(c.Request.Context(), h.cacheKey(requestdata.UserID(c.Request.Context())))
	c.Status(http.StatusNoContent)
}

// POST /api/characters/:id/analyze
func (h *CharacterHandler) Analyze(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	jobID, err := h.characters.StartAnalyze(c.Request.Context(), requestdata.UserID(c.Request.Context()), id)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "analyze_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}

// POST /api/characters/:id/analyze/comprehensive
func (h *CharacterHandler) ComprehensiveAnalyze(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	jobID, err := h.characters.StartComprehensiveAnalyze(c.Request.Context(), requestdata.UserID(c.Request.Context()), id)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "analyze_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}

type batchAnalyzeBody struct {
	CharacterIDs []uuid.UUID `json:"character_ids" binding:"required"`
}

// POST /api/characters/analyze/batch
func (h *CharacterHandler) BatchAnalyze(c *gin.Context) {
	var body batchAnalyzeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	jobID, err := h.characters.StartBatchAnalyze(c.Request.Context(), requestdata.UserID(c.Request.Context()), body.CharacterIDs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "batch_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}

type portraitBody struct {
	StylePrompt string `json:"style_prompt"`
}

// POST /api/characters/:id/portrait
func (h *CharacterHandler) Portrait(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body portraitBody
	_ = c.ShouldBindJSON(&body)
	jobID, err := h.characters.StartPortrait(c.Request.Context(), requestdata.UserID(c.Request.Context()), id, body.StylePrompt)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "portrait_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}
