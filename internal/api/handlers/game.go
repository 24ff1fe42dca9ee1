package handlers

import (
	"net/http"

	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/game"
	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	sessions *game.Store
}

func NewGameHandler(sessions *game.Store) *GameHandler {
	return &GameHandler{sessions: sessions}
}

// ListSessions returns the caller's live sessions, newest first
func (h *GameHandler) ListSessions(c *gin.Context) {
	userID := middleware.UserID(c)
	sessions := h.sessions.ListByUser(userID)
	views := make([]*game.Session, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, session.ViewFor(userID))
	}
	response.Success(c, http.StatusOK, views)
}

// GetSession returns one session. Sessions of other users are reported as
// missing.
func (h *GameHandler) GetSession(c *gin.Context) {
	userID := middleware.UserID(c)
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok || session.Seat(userID) < 0 {
		response.Error(c, http.StatusNotFound, response.ErrCodeNotFound, game.ErrSessionNotFound.Error())
		return
	}
	response.Success(c, http.StatusOK, session.ViewFor(userID))
}
