package websocket

import (
	"chat-realtime/internal/game"

	"github.com/google/uuid"
)

func (h *Hub) handleClientMessage(cm *ClientMessage) {
	client, msg := cm.Client, cm.Message

	switch msg.Type {
	case MessageTypeGameChallenge:
		var data ChallengeData
		if h.decode(client, msg, &data) {
			h.handleChallenge(client, data)
		}
	case MessageTypeGameJoin:
		var data GameRefData
		if h.decode(client, msg, &data) {
			h.handleJoin(client, data)
		}
	case MessageTypeGameMove:
		var data MoveData
		if h.decode(client, msg, &data) {
			h.handleMove(client, data)
		}
	case MessageTypeRematchRequest:
		var data GameRefData
		if h.decode(client, msg, &data) {
			h.handleRematch(client, data)
		}
	case MessageTypeTyping:
		var data TypingData
		if h.decode(client, msg, &data) {
			h.typing.TypingStart(client.userID, data.To)
		}
	case MessageTypeStopTyping:
		var data TypingData
		if h.decode(client, msg, &data) {
			h.typing.TypingStop(client.userID, data.To)
		}
	default:
		h.log.Warn("Unknown message type", "type", msg.Type, "userID", client.userID)
		client.sendError(ErrCodeUnknownEvent, "Unknown message type")
	}
}

func (h *Hub) decode(client *Client, msg *Message, v interface{}) bool {
	if err := msg.Decode(v); err != nil {
		h.log.Debug("Invalid payload", "type", msg.Type, "userID", client.userID, "error", err)
		client.sendError(ErrCodeInvalidMessage, "Invalid message data")
		return false
	}
	return true
}

func (h *Hub) handleChallenge(client *Client, data ChallengeData) {
	variant, err := game.ParseVariant(data.Variant)
	if err != nil {
		h.rejectGame(client, "", err)
		return
	}

	session, err := h.sessions.Challenge(client.userID, data.To, variant)
	if err != nil {
		h.rejectGame(client, "", err)
		return
	}
	h.cfg.Metrics.SetActiveSessions(h.sessions.Len())
	h.log.Info("Game challenge created", "gameID", session.ID, "from", client.userID, "to", data.To, "variant", variant)

	h.router.RouteToUser(data.To, MessageTypeGameInvite, InviteData{
		From:    client.userID,
		GameID:  session.ID,
		Variant: string(session.Variant),
	})
}

func (h *Hub) handleJoin(client *Client, data GameRefData) {
	session, err := h.sessions.Join(data.GameID, client.userID)
	if err != nil {
		h.rejectGame(client, data.GameID, err)
		return
	}
	h.log.Info("Game started", "gameID", session.ID, "userID", client.userID)
	h.broadcastSession(session)
}

func (h *Hub) handleMove(client *Client, data MoveData) {
	session, err := h.sessions.Move(data.GameID, client.userID, data.Idx)
	if err != nil {
		h.rejectGame(client, data.GameID, err)
		return
	}
	h.broadcastSession(session)

	if session.Status.Terminal() {
		h.log.Info("Game finished", "gameID", session.ID, "status", session.Status, "winner", session.Winner)
		h.publishResult(session)
	}
}

func (h *Hub) handleRematch(client *Client, data GameRefData) {
	rematch, err := h.sessions.RequestRematch(data.GameID, client.userID)
	if err != nil {
		h.rejectGame(client, data.GameID, err)
		return
	}

	if rematch.Restarted {
		h.log.Info("Rematch started", "gameID", rematch.Session.ID)
		h.broadcastSession(rematch.Session)
		return
	}
	h.router.RouteToUser(rematch.Opponent, MessageTypeRematchRequest, RematchRequestData{
		From:   client.userID,
		GameID: rematch.Session.ID,
	})
}

// broadcastSession routes each participant its own view of the session
func (h *Hub) broadcastSession(session *game.Session) {
	for _, userID := range session.Participants {
		h.router.RouteToUser(userID, MessageTypeGameUpdate, session.ViewFor(userID))
	}
}

// rejectGame tells the sender why a game event was refused. The session is
// left untouched.
func (h *Hub) rejectGame(client *Client, gameID string, err error) {
	code := game.Code(err)
	h.cfg.Metrics.GameRejected(code)
	h.log.Debug("Game event rejected", "gameID", gameID, "userID", client.userID, "code", code, "error", err)

	msg, buildErr := NewMessage(uuid.New().String(), MessageTypeGameError, client.userID, GameErrorData{
		GameID:  gameID,
		Code:    code,
		Message: err.Error(),
	})
	if buildErr != nil {
		return
	}
	if sendErr := client.SendMessage(msg); sendErr != nil {
		h.log.Debug("Failed to send game error", "userID", client.userID, "error", sendErr)
	}
}
