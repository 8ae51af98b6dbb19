package handlers

import (
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/inkfall/studio-backend/internal/agents"
)

type AgentsHandler struct {
	registry *agents.Registry
}

func NewAgentsHandler(registry *agents.Registry) *AgentsHandler {
	return &AgentsHandler{registry: registry}
}

// GET /api/agents
// Static metadata for the UI to estimate duration and cost before starting a job.
func (h *AgentsHandler) List(c *gin.Context) {
	infos := h.registry.Infos()
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	RespondOK(c, gin.H{"agents": infos})
}
