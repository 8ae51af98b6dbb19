package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/requestdata"
	"github.com/inkfall/studio-backend/internal/services"
)

type OutfitHandler struct {
	outfits services.OutfitService
}

func NewOutfitHandler(outfits services.OutfitService) *OutfitHandler {
	return &OutfitHandler{outfits: outfits}
}

// POST /api/outfits
func (h *OutfitHandler) Create(c *gin.Context) {
	var in services.OutfitCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	outfit, err := h.outfits.Create(c.Request.Context(), requestdata.UserID(c.Request.Context()), in)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"outfit": outfit})
}

// GET /api/outfits?character_id=
func (h *OutfitHandler) List(c *gin.Context) {
	if raw := c.Query("character_id"); raw != "" {
		characterID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_character_id", err)
			return
		}
		outfits, err := h.outfits.ListByCharacter(c.Request.Context(), characterID)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "list_failed", err)
			return
		}
		RespondOK(c, gin.H{"outfits": outfits})
		return
	}
	outfits, err := h.outfits.List(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"outfits": outfits})
}

// GET /api/outfits/:id
func (h *OutfitHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	outfit, err := h.outfits.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, gin.H{"outfit": outfit})
}

// PATCH /api/outfits/:id
func (h *OutfitHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var in services.OutfitUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	outfit, err := h.outfits.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"outfit": outfit})
}

// DELETE /api/outfits/:id
func (h *OutfitHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.outfits.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type designOutfitBody struct {
	CharacterID uuid.UUID `json:"character_id" binding:"required"`
	Occasion    string    `json:"occasion"`
}

// POST /api/outfits/design
func (h *OutfitHandler) Design(c *gin.Context) {
	var body designOutfitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	jobID, err := h.outfits.StartDesign(c.Request.Context(), requestdata.UserID(c.Request.Context()), body.CharacterID, body.Occasion)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "design_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}
