package game

import (
	"encoding/json"
	"fmt"
)

// Mark is the content of one board cell. The empty mark is encoded as null.
type Mark string

const (
	MarkNone   Mark = ""
	MarkX      Mark = "X"
	MarkO      Mark = "O"
	MarkRed    Mark = "R"
	MarkYellow Mark = "Y"
)

func (m Mark) MarshalJSON() ([]byte, error) {
	if m == MarkNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

// GridState is a row-major board shared by the line-forming games
type GridState struct {
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Board []Mark `json:"board"`

	lastCell int
	filled   int
}

func newGridState(rows, cols int) *GridState {
	return &GridState{
		Rows:     rows,
		Cols:     cols,
		Board:    make([]Mark, rows*cols),
		lastCell: -1,
	}
}

func (g *GridState) Clone() State {
	c := *g
	c.Board = append([]Mark(nil), g.Board...)
	return &c
}

// LastCell is the index of the most recently filled cell, -1 on a fresh board
func (g *GridState) LastCell() int {
	return g.lastCell
}

func (g *GridState) full() bool {
	return g.filled == len(g.Board)
}

// lineGame wins when a move completes a straight run of runLength marks.
// With gravity the move picks a column and the mark drops to the lowest
// empty row; without it the move picks a cell directly.
type lineGame struct {
	variant   Variant
	rows      int
	cols      int
	runLength int
	gravity   bool
	marks     [2]Mark
}

var (
	TicTacToe Engine = &lineGame{
		variant:   VariantTicTacToe,
		rows:      3,
		cols:      3,
		runLength: 3,
		marks:     [2]Mark{MarkX, MarkO},
	}
	ConnectFour Engine = &lineGame{
		variant:   VariantConnectFour,
		rows:      6,
		cols:      7,
		runLength: 4,
		gravity:   true,
		marks:     [2]Mark{MarkRed, MarkYellow},
	}
)

func (g *lineGame) Variant() Variant { return g.variant }

func (g *lineGame) TurnBased() bool { return true }

func (g *lineGame) NewState() State {
	return newGridState(g.rows, g.cols)
}

func (g *lineGame) ApplyMove(st State, seat int, move json.RawMessage) error {
	grid, ok := st.(*GridState)
	if !ok {
		return fmt.Errorf("%w: unexpected state %T for %s", ErrInvalidMove, st, g.variant)
	}
	if seat < 0 || seat > 1 {
		return fmt.Errorf("%w: seat %d", ErrInvalidMove, seat)
	}

	var idx int
	if err := decodeMove(move, &idx); err != nil {
		return err
	}

	cell, err := g.target(grid, idx)
	if err != nil {
		return err
	}

	grid.Board[cell] = g.marks[seat]
	grid.lastCell = cell
	grid.filled++
	return nil
}

// target resolves the cell a move would fill without changing the board
func (g *lineGame) target(grid *GridState, idx int) (int, error) {
	if !g.gravity {
		if idx < 0 || idx >= len(grid.Board) {
			return -1, fmt.Errorf("%w: cell %d out of range", ErrInvalidMove, idx)
		}
		if grid.Board[idx] != MarkNone {
			return -1, fmt.Errorf("%w: cell %d is taken", ErrInvalidMove, idx)
		}
		return idx, nil
	}

	if idx < 0 || idx >= grid.Cols {
		return -1, fmt.Errorf("%w: column %d out of range", ErrInvalidMove, idx)
	}
	for row := grid.Rows - 1; row >= 0; row-- {
		cell := row*grid.Cols + idx
		if grid.Board[cell] == MarkNone {
			return cell, nil
		}
	}
	return -1, fmt.Errorf("%w: column %d is full", ErrInvalidMove, idx)
}

// directions walked from the last played cell: horizontal, vertical, both diagonals
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func (g *lineGame) Outcome(st State) Outcome {
	grid, ok := st.(*GridState)
	if !ok || grid.lastCell < 0 {
		return ongoing
	}

	mark := grid.Board[grid.lastCell]
	row, col := grid.lastCell/grid.Cols, grid.lastCell%grid.Cols
	for _, d := range directions {
		run := 1 + grid.count(row, col, d[0], d[1], mark) + grid.count(row, col, -d[0], -d[1], mark)
		if run >= g.runLength {
			return Outcome{Status: StatusWon, Winner: g.seatOf(mark)}
		}
	}

	if grid.full() {
		return Outcome{Status: StatusDraw, Winner: -1}
	}
	return ongoing
}

// count returns how many consecutive cells hold mark stepping away from (row, col)
func (g *GridState) count(row, col, dr, dc int, mark Mark) int {
	n := 0
	for {
		row += dr
		col += dc
		if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
			return n
		}
		if g.Board[row*g.Cols+col] != mark {
			return n
		}
		n++
	}
}

func (g *lineGame) seatOf(mark Mark) int {
	for seat, m := range g.marks {
		if m == mark {
			return seat
		}
	}
	return -1
}
