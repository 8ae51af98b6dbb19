package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkfall/studio-backend/internal/requestdata"
	"github.com/inkfall/studio-backend/internal/sse"
)

type SSEHandler struct {
	hub *sse.Hub
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

/*
Stream opens the event stream. Channels come from the `channels` query
parameter (comma separated, e.g. "job:<id>"); the caller's own user channel
is always included so job updates for everything they own arrive without an
explicit subscription. The first event carries the client id, which the
subscribe/unsubscribe endpoints take to change channels mid-stream.
*/
// GET /sse/stream?channels=job:<id>,...
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	client := h.hub.NewClient(userID)

	h.hub.Subscribe(client, "user:"+userID.String())
	for _, ch := range strings.Split(c.Query("channels"), ",") {
		h.hub.Subscribe(client, ch)
	}
	defer h.hub.CloseClient(client)

	client.Outbound <- sse.Message{
		Channel: "user:" + userID.String(),
		Event:   sse.EventConnected,
		Data:    gin.H{"client_id": client.ID},
	}
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}

type subscriptionRequest struct {
	ClientID uuid.UUID `json:"client_id" binding:"required"`
	Channel  string    `json:"channel" binding:"required"`
}

// POST /sse/subscribe
func (h *SSEHandler) Subscribe(c *gin.Context) {
	client, channel, ok := h.ownedClient(c)
	if !ok {
		return
	}
	h.hub.Subscribe(client, channel)
	RespondOK(c, gin.H{"subscribed": channel})
}

// POST /sse/unsubscribe
func (h *SSEHandler) Unsubscribe(c *gin.Context) {
	client, channel, ok := h.ownedClient(c)
	if !ok {
		return
	}
	h.hub.Unsubscribe(client, channel)
	RespondOK(c, gin.H{"unsubscribed": channel})
}

func (h *SSEHandler) ownedClient(c *gin.Context) (*sse.Client, string, bool) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return nil, "", false
	}
	client, found := h.hub.Lookup(req.ClientID)
	if !found {
		RespondError(c, http.StatusNotFound, "client_not_found", fmt.Errorf("no open stream for client %s", req.ClientID))
		return nil, "", false
	}
	if client.UserID != requestdata.UserID(c.Request.Context()) {
		RespondError(c, http.StatusForbidden, "not_your_stream", fmt.Errorf("client belongs to another user"))
		return nil, "", false
	}
	return client, req.Channel, true
}
