package game

import "errors"

var (
	ErrSessionNotFound  = errors.New("game session not found")
	ErrNotParticipant   = errors.New("user is not a participant of this game")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidMove      = errors.New("invalid move")
	ErrGameNotActive    = errors.New("game is not in progress")
	ErrGameNotOver      = errors.New("game is not over")
	ErrInvalidChallenge = errors.New("invalid challenge")
	ErrUnknownVariant   = errors.New("unknown game variant")
)

// Error codes sent to clients in game:error events
const (
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeNotParticipant   = "NOT_PARTICIPANT"
	CodeNotYourTurn      = "NOT_YOUR_TURN"
	CodeInvalidMove      = "INVALID_MOVE"
	CodeGameNotActive    = "GAME_NOT_ACTIVE"
	CodeGameNotOver      = "GAME_NOT_OVER"
	CodeInvalidChallenge = "INVALID_CHALLENGE"
	CodeUnknownVariant   = "UNKNOWN_VARIANT"
	CodeInternal         = "INTERNAL"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrSessionNotFound, CodeSessionNotFound},
	{ErrNotParticipant, CodeNotParticipant},
	{ErrNotYourTurn, CodeNotYourTurn},
	{ErrInvalidMove, CodeInvalidMove},
	{ErrGameNotActive, CodeGameNotActive},
	{ErrGameNotOver, CodeGameNotOver},
	{ErrInvalidChallenge, CodeInvalidChallenge},
	{ErrUnknownVariant, CodeUnknownVariant},
}

// Code returns the client-facing code for a store error
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
