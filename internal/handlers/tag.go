package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/repos"
)

type TagHandler struct {
	tags repos.TagRepo
}

func NewTagHandler(tags repos.TagRepo) *TagHandler {
	return &TagHandler{tags: tags}
}

type createTagsBody struct {
	Names []string `json:"names" binding:"required"`
}

// POST /api/tags
func (h *TagHandler) Create(c *gin.Context) {
	var body createTagsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	tags, err := h.tags.GetOrCreate(c.Request.Context(), nil, body.Names)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tags": tags})
}

// GET /api/tags
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context(), nil)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"tags": tags})
}

// DELETE /api/tags/:id
func (h *TagHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.tags.SoftDelete(c.Request.Context(), nil, id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
