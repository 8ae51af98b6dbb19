package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/requestdata"
	"github.com/inkfall/studio-backend/internal/services"
)

type BoardGameHandler struct {
	games services.BoardGameService
}

func NewBoardGameHandler(games services.BoardGameService) *BoardGameHandler {
	return &BoardGameHandler{games: games}
}

// POST /api/boardgames
func (h *BoardGameHandler) Create(c *gin.Context) {
	var in services.BoardGameCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	game, err := h.games.Create(c.Request.Context(), requestdata.UserID(c.Request.Context()), in)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"board_game": game})
}

// GET /api/boardgames
func (h *BoardGameHandler) List(c *gin.Context) {
	games, err := h.games.List(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"board_games": games})
}

// GET /api/boardgames/:id
func (h *BoardGameHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	game, err := h.games.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, gin.H{"board_game": game})
}

// PATCH /api/boardgames/:id
func (h *BoardGameHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var in services.BoardGameUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	game, err := h.games.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"board_game": game})
}

// DELETE /api/boardgames/:id
func (h *BoardGameHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.games.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type importGameBody struct {
	BGGID int `json:"bgg_id" binding:"required"`
}

// POST /api/boardgames/import
func (h *BoardGameHandler) Import(c *gin.Context) {
	var body importGameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	jobID, err := h.games.StartImport(c.Request.Context(), requestdata.UserID(c.Request.Context()), body.BGGID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "import_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}
