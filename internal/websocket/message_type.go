package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType names a websocket event
type MessageType string

// Inbound events (client -> server)
const (
	MessageTypeGameChallenge  MessageType = "game:challenge"
	MessageTypeGameJoin       MessageType = "game:join"
	MessageTypeGameMove       MessageType = "game:move"
	MessageTypeRematchRequest MessageType = "game:rematch-request"
	MessageTypeTyping         MessageType = "typing"
	MessageTypeStopTyping     MessageType = "stopTyping"
)

// Outbound events (server -> client). Typing and rematch requests reuse the
// inbound names.
const (
	MessageTypeOnlineUsers MessageType = "getOnlineUser"
	MessageTypeGameInvite  MessageType = "game:invite"
	MessageTypeGameUpdate  MessageType = "game:update"
	MessageTypeGameError   MessageType = "game:error"
	MessageTypeNewMessage  MessageType = "newMessage"
	MessageTypeError       MessageType = "error"
)

// Error codes for malformed frames
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeUnknownEvent   = "UNKNOWN_EVENT"
)

func (mt MessageType) String() string {
	return string(mt)
}

// IsInbound reports whether clients may send this event
func (mt MessageType) IsInbound() bool {
	switch mt {
	case MessageTypeGameChallenge, MessageTypeGameJoin, MessageTypeGameMove,
		MessageTypeRematchRequest, MessageTypeTyping, MessageTypeStopTyping:
		return true
	default:
		return false
	}
}

// Message is the envelope of every frame in both directions
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	UserID    string          `json:"user_id,omitempty"`
}

// Validate checks the envelope of an inbound frame
func (m *Message) Validate() error {
	if m.Type == "" {
		return fmt.Errorf("message type is required")
	}
	if !m.Type.IsInbound() {
		return fmt.Errorf("unknown message type: %s", m.Type)
	}
	return nil
}

// Decode unmarshals the payload into v
func (m *Message) Decode(v interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s: missing data", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%s: %w", m.Type, err)
	}
	return nil
}

// Inbound payloads

type ChallengeData struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"` // ignored, identity comes from the connection
	Variant string `json:"variant,omitempty"`
}

type GameRefData struct {
	GameID string `json:"gameId"`
}

type MoveData struct {
	GameID string          `json:"gameId"`
	Idx    json.RawMessage `json:"idx"`
}

type TypingData struct {
	To string `json:"to"`
}

// Outbound payloads

type InviteData struct {
	From    string `json:"from"`
	GameID  string `json:"gameId"`
	Variant string `json:"variant"`
}

type RematchRequestData struct {
	From   string `json:"from"`
	GameID string `json:"gameId"`
}

type GameErrorData struct {
	GameID  string `json:"gameId,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PeerData struct {
	From string `json:"from"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage creates a message carrying data encoded as JSON
func NewMessage(id string, msgType MessageType, userID string, data interface{}) (*Message, error) {
	var payload json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", msgType, err)
		}
		payload = b
	}
	return &Message{
		ID:        id,
		Type:      msgType,
		Data:      payload,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
	}, nil
}

// NewErrorMessage creates an error message
func NewErrorMessage(id, userID, code, message string) *Message {
	msg, _ := NewMessage(id, MessageTypeError, userID, ErrorData{Code: code, Message: message})
	return msg
}
