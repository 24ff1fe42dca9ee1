package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func playAll(t *testing.T, e Engine, st State, seats []int, moves []interface{}) {
	t.Helper()
	for i, m := range moves {
		require.NoError(t, e.ApplyMove(st, seats[i%len(seats)], raw(m)), "move %d", i)
	}
}

func TestTicTacToeTopRowWin(t *testing.T) {
	st := TicTacToe.NewState()
	playAll(t, TicTacToe, st, []int{0, 1}, []interface{}{0, 4, 1, 3, 2})

	out := TicTacToe.Outcome(st)
	assert.Equal(t, StatusWon, out.Status)
	assert.Equal(t, 0, out.Winner)

	board, err := json.Marshal(st.(*GridState).Board)
	require.NoError(t, err)
	assert.JSONEq(t, `["X","X","X","O","O",null,null,null,null]`, string(board))
}

func TestTicTacToeDraw(t *testing.T) {
	// X O X
	// X O O
	// O X X
	st := TicTacToe.NewState()
	playAll(t, TicTacToe, st, []int{0, 1}, []interface{}{0, 1, 2, 4, 3, 5, 7, 6, 8})

	out := TicTacToe.Outcome(st)
	assert.Equal(t, StatusDraw, out.Status)
	assert.Equal(t, -1, out.Winner)
}

func TestTicTacToeDiagonalWinOnLastCell(t *testing.T) {
	st := TicTacToe.NewState()
	playAll(t, TicTacToe, st, []int{0, 1}, []interface{}{0, 1, 4, 2, 8})

	out := TicTacToe.Outcome(st)
	assert.Equal(t, StatusWon, out.Status)
	assert.Equal(t, 0, out.Winner)
}

func TestTicTacToeRejectsInvalidCells(t *testing.T) {
	st := TicTacToe.NewState()
	require.NoError(t, TicTacToe.ApplyMove(st, 0, raw(4)))
	before := st.Clone()

	tests := []struct {
		name string
		move json.RawMessage
	}{
		{"occupied", raw(4)},
		{"negative", raw(-1)},
		{"out of range", raw(9)},
		{"not a number", raw("a1")},
		{"null", json.RawMessage("null")},
		{"missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TicTacToe.ApplyMove(st, 1, tt.move)
			assert.ErrorIs(t, err, ErrInvalidMove)
			assert.Equal(t, before, st)
		})
	}
}

func TestFreshGridIsEmpty(t *testing.T) {
	grid := TicTacToe.NewState().(*GridState)
	assert.Len(t, grid.Board, 9)
	for _, cell := range grid.Board {
		assert.Equal(t, MarkNone, cell)
	}
	assert.Equal(t, -1, grid.LastCell())
	assert.Equal(t, ongoing, TicTacToe.Outcome(grid))
}

func TestConnectFourGravity(t *testing.T) {
	st := ConnectFour.NewState()
	grid := st.(*GridState)

	require.NoError(t, ConnectFour.ApplyMove(st, 0, raw(3)))
	assert.Equal(t, 5*7+3, grid.LastCell())
	assert.Equal(t, MarkRed, grid.Board[5*7+3])

	require.NoError(t, ConnectFour.ApplyMove(st, 1, raw(3)))
	assert.Equal(t, 4*7+3, grid.LastCell())
	assert.Equal(t, MarkYellow, grid.Board[4*7+3])
}

func TestConnectFourFullColumn(t *testing.T) {
	st := ConnectFour.NewState()
	playAll(t, ConnectFour, st, []int{0, 1}, []interface{}{0, 0, 0, 0, 0, 0})
	before := st.Clone()

	err := ConnectFour.ApplyMove(st, 0, raw(0))
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, before, st)

	assert.ErrorIs(t, ConnectFour.ApplyMove(st, 0, raw(7)), ErrInvalidMove)
}

func TestConnectFourWins(t *testing.T) {
	tests := []struct {
		name  string
		moves []interface{}
	}{
		{"horizontal", []interface{}{0, 0, 1, 1, 2, 2, 3}},
		{"vertical", []interface{}{4, 5, 4, 5, 4, 5, 4}},
		// red climbs 0..3 on a staircase built by yellow
		{"diagonal", []interface{}{0, 1, 1, 2, 2, 3, 2, 3, 3, 6, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ConnectFour.NewState()
			playAll(t, ConnectFour, st, []int{0, 1}, tt.moves)

			out := ConnectFour.Outcome(st)
			assert.Equal(t, StatusWon, out.Status)
			assert.Equal(t, 0, out.Winner)
		})
	}
}

func TestConnectFourThreeIsNotEnough(t *testing.T) {
	st := ConnectFour.NewState()
	playAll(t, ConnectFour, st, []int{0, 1}, []interface{}{0, 0, 1, 1, 2})

	assert.Equal(t, ongoing, ConnectFour.Outcome(st))
}

func TestGridCloneIsDeep(t *testing.T) {
	st := TicTacToe.NewState()
	cp := st.Clone()
	require.NoError(t, TicTacToe.ApplyMove(st, 0, raw(0)))

	assert.Equal(t, MarkNone, cp.(*GridState).Board[0])
	assert.Equal(t, -1, cp.(*GridState).LastCell())
}
