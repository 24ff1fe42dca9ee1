package handlers

import (
	"net/http"

	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/websocket"
	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

type WSHandler struct {
	hub      *websocket.Hub
	upgrader *gorilla.Upgrader
}

func NewWSHandler(hub *websocket.Hub, upgrader *gorilla.Upgrader) *WSHandler {
	return &WSHandler{hub: hub, upgrader: upgrader}
}

// HandleWebSocket upgrades the request and attaches the connection to the
// hub as the user authenticated by the auth middleware
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, http.StatusBadRequest, response.ErrCodeParamInvalid, "userId parameter is required")
		return
	}

	websocket.ServeWS(h.hub, h.upgrader, c.Writer, c.Request, userID)
}
