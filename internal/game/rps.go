package game

import (
	"encoding/json"
	"fmt"
)

// Choice is a rock-paper-scissors hand. The empty choice is encoded as null.
type Choice string

const (
	ChoiceNone     Choice = ""
	ChoiceRock     Choice = "Rock"
	ChoicePaper    Choice = "Paper"
	ChoiceScissors Choice = "Scissors"

	// ChoiceHidden stands in for a hand the viewer may not see yet
	ChoiceHidden Choice = "hidden"
)

// beats maps each choice to the choice it defeats
var beats = map[Choice]Choice{
	ChoiceRock:     ChoiceScissors,
	ChoicePaper:    ChoiceRock,
	ChoiceScissors: ChoicePaper,
}

func (c Choice) MarshalJSON() ([]byte, error) {
	if c == ChoiceNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// ChoiceState holds one choice per seat. A seat only sees the other hand
// once both are in, see Conceal.
type ChoiceState struct {
	Choices [2]Choice `json:"choices"`
}

func (c *ChoiceState) Clone() State {
	cp := *c
	return &cp
}

// Conceal replaces every hand but seat's with ChoiceHidden. Seats that have
// not picked stay null so the viewer still knows who is pending.
func (c *ChoiceState) Conceal(seat int) State {
	cp := *c
	for i, choice := range cp.Choices {
		if i != seat && choice != ChoiceNone {
			cp.Choices[i] = ChoiceHidden
		}
	}
	return &cp
}

type simultaneousChoice struct{}

// RockPaperScissors resolves once both seats have picked a hand
var RockPaperScissors Engine = simultaneousChoice{}

func (simultaneousChoice) Variant() Variant { return VariantRockPaperScissors }

func (simultaneousChoice) TurnBased() bool { return false }

func (simultaneousChoice) NewState() State {
	return &ChoiceState{}
}

func (simultaneousChoice) ApplyMove(st State, seat int, move json.RawMessage) error {
	cs, ok := st.(*ChoiceState)
	if !ok {
		return fmt.Errorf("%w: unexpected state %T for %s", ErrInvalidMove, st, VariantRockPaperScissors)
	}
	if seat < 0 || seat > 1 {
		return fmt.Errorf("%w: seat %d", ErrInvalidMove, seat)
	}

	var choice Choice
	if err := decodeMove(move, &choice); err != nil {
		return err
	}
	if _, known := beats[choice]; !known {
		return fmt.Errorf("%w: unknown choice %q", ErrInvalidMove, choice)
	}
	if cs.Choices[seat] != ChoiceNone {
		return fmt.Errorf("%w: choice already made", ErrInvalidMove)
	}

	cs.Choices[seat] = choice
	return nil
}

func (simultaneousChoice) Outcome(st State) Outcome {
	cs, ok := st.(*ChoiceState)
	if !ok {
		return ongoing
	}
	first, second := cs.Choices[0], cs.Choices[1]
	if first == ChoiceNone || second == ChoiceNone {
		return ongoing
	}
	return Outcome{Status: resolveStatus(first, second), Winner: resolveWinner(first, second)}
}

func resolveStatus(first, second Choice) Status {
	if first == second {
		return StatusDraw
	}
	return StatusWon
}

// resolveWinner returns the winning seat, or -1 for a draw
func resolveWinner(first, second Choice) int {
	switch {
	case first == second:
		return -1
	case beats[first] == second:
		return 0
	default:
		return 1
	}
}
