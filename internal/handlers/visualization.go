package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/requestdata"
	"github.com/inkfall/studio-backend/internal/services"
)

type VisualizationHandler struct {
	visualizations services.VisualizationService
}

func NewVisualizationHandler(visualizations services.VisualizationService) *VisualizationHandler {
	return &VisualizationHandler{visualizations: visualizations}
}

// POST /api/visualizations
func (h *VisualizationHandler) Create(c *gin.Context) {
	var in services.VisualizationCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	cfg, err := h.visualizations.Create(c.Request.Context(), requestdata.UserID(c.Request.Context()), in)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"visualization": cfg})
}

// GET /api/visualizations
func (h *VisualizationHandler) List(c *gin.Context) {
	configs, err := h.visualizations.List(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"visualizations": configs})
}

// GET /api/visualizations/:id
func (h *VisualizationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	cfg, err := h.visualizations.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, gin.H{"visualization": cfg})
}

// PATCH /api/visualizations/:id
func (h *VisualizationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var in services.VisualizationUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	cfg, err := h.visualizations.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"visualization": cfg})
}

// DELETE /api/visualizations/:id
func (h *VisualizationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.visualizations.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/visualizations/:id/export
func (h *VisualizationHandler) Export(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	raw, err := h.visualizations.ExportYAML(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusNotFound, "export_failed", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=visualization.yaml")
	c.Data(http.StatusOK, "application/yaml", raw)
}

// POST /api/visualizations/import
func (h *VisualizationHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	cfg, err := h.visualizations.ImportYAML(c.Request.Context(), requestdata.UserID(c.Request.Context()), raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "import_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"visualization": cfg})
}

// POST /api/visualizations/:id/preview
func (h *VisualizationHandler) Preview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	jobID, err := h.visualizations.StartPreviewRender(c.Request.Context(), requestdata.UserID(c.Request.Context()), id)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "preview_start_failed", err)
		return
	}
	RespondAccepted(c, jobID.String())
}
