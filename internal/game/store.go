package game

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// entry pairs a session with the rematch wishes of its two seats
type entry struct {
	session *Session
	engine  Engine
	rematch [2]bool
}

// Store is the process-wide table of active sessions. Every method is atomic
// and returns copies, so callers never share memory with the table.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	now   func() time.Time
	newID func() string
}

// Option customizes a Store
type Option func(*Store)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the uuid session id generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Challenge opens a session in which from invites to. The session waits for
// a join before any move is accepted.
func (s *Store) Challenge(from, to string, variant Variant) (*Session, error) {
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: both players are required", ErrInvalidChallenge)
	}
	if from == to {
		return nil, fmt.Errorf("%w: cannot challenge yourself", ErrInvalidChallenge)
	}
	engine, err := EngineFor(variant)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &Session{
		Variant:      variant,
		Participants: [2]string{from, to},
		State:        engine.NewState(),
		Turn:         0,
		Status:       StatusAwaitingJoin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, taken := s.sessions[id]; taken; _, taken = s.sessions[id] {
		id = s.newID()
	}
	session.ID = id
	s.sessions[id] = &entry{session: session, engine: engine}

	return session.Clone(), nil
}

// Join (re)starts the match. Any participant may join and the board is
// always reset, including for a game already in progress.
func (s *Store) Join(id, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.participantEntry(id, userID)
	if err != nil {
		return nil, err
	}

	e.session.reset(e.engine, s.now())
	e.rematch = [2]bool{}
	return e.session.Clone(), nil
}

// Move validates and applies a move by userID. A rejected move leaves the
// session untouched.
func (s *Store) Move(id, userID string, move json.RawMessage) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.participantEntry(id, userID)
	if err != nil {
		return nil, err
	}
	session := e.session
	if session.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: status is %s", ErrGameNotActive, session.Status)
	}

	seat := session.Seat(userID)
	if e.engine.TurnBased() && session.Turn != seat {
		return nil, ErrNotYourTurn
	}

	if err := e.engine.ApplyMove(session.State, seat, move); err != nil {
		return nil, err
	}

	if e.engine.TurnBased() {
		session.Turn = 1 - session.Turn
	}
	outcome := e.engine.Outcome(session.State)
	session.Status = outcome.Status
	if outcome.Status == StatusWon && outcome.Winner >= 0 {
		session.Winner = session.Participants[outcome.Winner]
	}
	session.LastMove = &LastMove{Move: append(json.RawMessage(nil), move...), By: userID}
	session.UpdatedAt = s.now()

	return session.Clone(), nil
}

// Rematch is the effect of a rematch request
type Rematch struct {
	Session *Session
	// Opponent is the participant who should hear about the request
	Opponent string
	// Restarted is true once both participants asked and the match was reset
	Restarted bool
}

// RequestRematch records that userID wants to play again. When both seats
// have asked, the session restarts as if joined.
func (s *Store) RequestRematch(id, userID string) (*Rematch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.participantEntry(id, userID)
	if err != nil {
		return nil, err
	}
	session := e.session
	if !session.Status.Terminal() {
		return nil, fmt.Errorf("%w: status is %s", ErrGameNotOver, session.Status)
	}

	e.rematch[session.Seat(userID)] = true
	session.UpdatedAt = s.now()

	result := &Rematch{Opponent: session.Opponent(userID)}
	if e.rematch[0] && e.rematch[1] {
		session.reset(e.engine, s.now())
		e.rematch = [2]bool{}
		result.Restarted = true
	}
	result.Session = session.Clone()
	return result, nil
}

// RematchRequested reports the rematch flags of a session
func (s *Store) RematchRequested(id string) ([2]bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return [2]bool{}, false
	}
	return e.rematch, true
}

// Get returns a copy of the session with the given id
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return e.session.Clone(), true
}

// ListByUser returns copies of every session userID takes part in, newest first
func (s *Store) ListByUser(userID string) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*Session, 0)
	for _, e := range s.sessions {
		if e.session.Seat(userID) >= 0 {
			sessions = append(sessions, e.session.Clone())
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions
}

// Len returns the number of sessions held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// participantEntry looks up a session and checks membership. Callers hold mu.
func (s *Store) participantEntry(id, userID string) (*entry, error) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if e.session.Seat(userID) < 0 {
		return nil, ErrNotParticipant
	}
	return e, nil
}
