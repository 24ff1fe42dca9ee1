package handlers

import (
	"context"
	"net/http"
	"time"

	"chat-realtime/internal/websocket"
	"chat-realtime/pkg/logger"
	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
)

// LastSeenReader answers when a user was last seen connecting or leaving
type LastSeenReader interface {
	LastSeen(ctx context.Context, userID string) (time.Time, bool, error)
}

type PresenceHandler struct {
	registry *websocket.Registry
	lastSeen LastSeenReader
	log      *logger.Logger
}

// NewPresenceHandler answers from the in-process registry. lastSeen may be
// nil when no Redis mirror is configured.
func NewPresenceHandler(registry *websocket.Registry, lastSeen LastSeenReader, log *logger.Logger) *PresenceHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &PresenceHandler{registry: registry, lastSeen: lastSeen, log: log}
}

type UserPresence struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

func (h *PresenceHandler) GetOnlineUsers(c *gin.Context) {
	response.Success(c, http.StatusOK, h.registry.OnlineUserIDs())
}

func (h *PresenceHandler) GetUserPresence(c *gin.Context) {
	userID := c.Param("userId")
	presence := UserPresence{UserID: userID, Online: h.registry.IsOnline(userID)}

	if h.lastSeen != nil {
		at, ok, err := h.lastSeen.LastSeen(c.Request.Context(), userID)
		switch {
		case err != nil:
			h.log.Warn("Failed to read last seen", "userID", userID, "error", err)
		case ok:
			presence.LastSeen = &at
		}
	}

	response.Success(c, http.StatusOK, presence)
}
