package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MoveResign ends a chess game in favour of the opponent
const MoveResign = "resign"

// ChessState records the move list of a chess game. Moves are relayed as
// opaque strings; board legality is left to the clients.
type ChessState struct {
	Moves []string `json:"moves"`

	resignedBy int
}

func (c *ChessState) Clone() State {
	cp := *c
	cp.Moves = append([]string(nil), c.Moves...)
	return &cp
}

type chessRelay struct{}

// Chess alternates turns and only ends on resignation
var Chess Engine = chessRelay{}

func (chessRelay) Variant() Variant { return VariantChess }

func (chessRelay) TurnBased() bool { return true }

func (chessRelay) NewState() State {
	return &ChessState{Moves: []string{}, resignedBy: -1}
}

func (chessRelay) ApplyMove(st State, seat int, move json.RawMessage) error {
	cs, ok := st.(*ChessState)
	if !ok {
		return fmt.Errorf("%w: unexpected state %T for %s", ErrInvalidMove, st, VariantChess)
	}
	if seat < 0 || seat > 1 {
		return fmt.Errorf("%w: seat %d", ErrInvalidMove, seat)
	}

	var notation string
	if err := decodeMove(move, &notation); err != nil {
		return err
	}
	notation = strings.TrimSpace(notation)
	if notation == "" {
		return fmt.Errorf("%w: empty chess move", ErrInvalidMove)
	}

	if strings.EqualFold(notation, MoveResign) {
		cs.resignedBy = seat
		notation = MoveResign
	}
	cs.Moves = append(cs.Moves, notation)
	return nil
}

func (chessRelay) Outcome(st State) Outcome {
	cs, ok := st.(*ChessState)
	if !ok || cs.resignedBy < 0 {
		return ongoing
	}
	return Outcome{Status: StatusWon, Winner: 1 - cs.resignedBy}
}
