package game

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the lifecycle position of a session
type Status string

const (
	StatusAwaitingJoin Status = "awaiting-join"
	StatusInProgress   Status = "in-progress"
	StatusWon          Status = "won"
	StatusDraw         Status = "draw"
)

// Terminal reports whether no further moves are accepted
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusDraw
}

// LastMove is the most recently accepted move descriptor and its author
type LastMove struct {
	Move json.RawMessage `json:"move"`
	By   string          `json:"by"`
}

// Session is one two-player game. The participant order is fixed at creation
// and seat 0 always moves first.
type Session struct {
	ID           string    `json:"id"`
	Variant      Variant   `json:"variant"`
	Participants [2]string `json:"participants"`
	State        State     `json:"state"`
	Turn         int       `json:"turn"`
	Status       Status    `json:"status"`
	Winner       string    `json:"winner,omitempty"`
	Joined       bool      `json:"joined"`
	Round        int       `json:"round"`
	LastMove     *LastMove `json:"lastMove,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Seat returns the participant index of userID, or -1
func (s *Session) Seat(userID string) int {
	for i, p := range s.Participants {
		if p == userID {
			return i
		}
	}
	return -1
}

// Opponent returns the other participant, or "" when userID is not seated
func (s *Session) Opponent(userID string) string {
	seat := s.Seat(userID)
	if seat < 0 {
		return ""
	}
	return s.Participants[1-seat]
}

// Clone returns a deep copy safe to hand out of the store
func (s *Session) Clone() *Session {
	cp := *s
	if s.State != nil {
		cp.State = s.State.Clone()
	}
	if s.LastMove != nil {
		lm := *s.LastMove
		lm.Move = append(json.RawMessage(nil), s.LastMove.Move...)
		cp.LastMove = &lm
	}
	return &cp
}

// Concealer is implemented by states holding information that one seat may
// not see while the game is in progress
type Concealer interface {
	Conceal(seat int) State
}

var hiddenMove = json.RawMessage(`"hidden"`)

// ViewFor returns the snapshot userID may see. While the game is running the
// other seat's concealed state and last move are masked. Finished games are
// shown in full.
func (s *Session) ViewFor(userID string) *Session {
	view := s.Clone()
	if s.Status.Terminal() {
		return view
	}
	concealer, ok := view.State.(Concealer)
	if !ok {
		return view
	}
	view.State = concealer.Conceal(s.Seat(userID))
	if view.LastMove != nil && view.LastMove.By != userID {
		view.LastMove.Move = append(json.RawMessage(nil), hiddenMove...)
	}
	return view
}

// reset starts a fresh match between the same participants
func (s *Session) reset(e Engine, now time.Time) {
	s.State = e.NewState()
	s.Turn = 0
	s.Status = StatusInProgress
	s.Winner = ""
	s.Joined = true
	s.Round++
	s.LastMove = nil
	s.UpdatedAt = now
}

// Result summarizes a finished session for stats and event consumers
type Result struct {
	SessionID    string    `json:"sessionId"`
	Round        int       `json:"round"`
	Variant      Variant   `json:"variant"`
	Participants [2]string `json:"participants"`
	Winner       string    `json:"winner,omitempty"`
	Draw         bool      `json:"draw"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// ResultOf returns the result of a terminal session
func ResultOf(s *Session) (Result, bool) {
	if !s.Status.Terminal() {
		return Result{}, false
	}
	return Result{
		SessionID:    s.ID,
		Round:        s.Round,
		Variant:      s.Variant,
		Participants: s.Participants,
		Winner:       s.Winner,
		Draw:         s.Status == StatusDraw,
		FinishedAt:   s.UpdatedAt,
	}, true
}

// ResultSink receives the result of every finished session
type ResultSink interface {
	RecordResult(ctx context.Context, result Result) error
}
