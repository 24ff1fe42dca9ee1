// Package game holds the in-memory two-player game sessions and the per-variant
// rule engines that validate moves and detect the end of a match.
package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Variant names one of the supported rule sets
type Variant string

const (
	VariantTicTacToe         Variant = "tic-tac-toe"
	VariantConnectFour       Variant = "connect-four"
	VariantRockPaperScissors Variant = "rock-paper-scissors"
	VariantChess             Variant = "chess"
)

// ParseVariant resolves a client supplied variant name. An empty name means
// tic-tac-toe, the only game older clients know about.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tic-tac-toe", "tictactoe":
		return VariantTicTacToe, nil
	case "connect-four", "connectfour", "connect4":
		return VariantConnectFour, nil
	case "rock-paper-scissors", "rockpaperscissors", "rps":
		return VariantRockPaperScissors, nil
	case "chess":
		return VariantChess, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
}

// State is the variant specific part of a session
type State interface {
	Clone() State
}

// Outcome is what an engine reports after inspecting a state
type Outcome struct {
	Status Status
	Winner int // seat index, -1 when nobody won
}

var ongoing = Outcome{Status: StatusInProgress, Winner: -1}

// Engine implements the rules of one variant.
// ApplyMove must leave st untouched when it returns an error.
type Engine interface {
	Variant() Variant
	// TurnBased reports whether seats alternate. Simultaneous games let each
	// seat move once in any order.
	TurnBased() bool
	NewState() State
	ApplyMove(st State, seat int, move json.RawMessage) error
	Outcome(st State) Outcome
}

var engines = map[Variant]Engine{
	VariantTicTacToe:         TicTacToe,
	VariantConnectFour:       ConnectFour,
	VariantRockPaperScissors: RockPaperScissors,
	VariantChess:             Chess,
}

// EngineFor returns the engine registered for v
func EngineFor(v Variant) (Engine, error) {
	e, ok := engines[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return e, nil
}

// decodeMove unmarshals a move descriptor, treating a missing or null value as invalid
func decodeMove(raw json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: missing move", ErrInvalidMove)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	return nil
}
