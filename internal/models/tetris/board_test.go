package tetris

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard(t *testing.T) {
	board, err := NewBoard(8, 16)
	require.NoError(t, err)
	assert.Equal(t, 8, board.Width())
	assert.Equal(t, 16, board.Height())

	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			assert.False(t, board.Occupied(x, y))
		}
	}

	for _, size := range [][2]int{{0, 16}, {8, 0}, {-1, 4}} {
		_, err := NewBoard(size[0], size[1])
		assert.True(t, errors.Is(err, ErrInvalidConfig), "size %v should be rejected", size)
	}
}

func TestBoard_GetSetOutOfBounds(t *testing.T) {
	board, _ := NewBoard(4, 4)

	require.NoError(t, board.Set(3, 3, BlockOf(TypeT)))
	got, err := board.Get(3, 3)
	require.NoError(t, err)
	assert.Equal(t, BlockOf(TypeT), got)

	cases := [][2]int{{-1, 0}, {4, 0}, {0, -1}, {0, 4}}
	for _, c := range cases {
		_, err := board.Get(c[0], c[1])
		assert.ErrorIs(t, err, ErrOutOfBounds)
		assert.ErrorIs(t, board.Set(c[0], c[1], BlockOf(TypeI)), ErrOutOfBounds)
	}
}

func TestBoard_ClearRowAndCompactAbove(t *testing.T) {
	board, _ := NewBoard(3, 4)
	// 行1を埋め、行2と行3に1マスずつ置く
	for x := 0; x < 3; x++ {
		board.Set(x, 1, BlockOf(TypeO))
	}
	board.Set(0, 0, BlockOf(TypeI))
	board.Set(1, 2, BlockOf(TypeS))
	board.Set(2, 3, BlockOf(TypeZ))

	assert.True(t, board.IsRowFull(1))
	board.ClearRow(1)
	assert.False(t, board.IsRowFull(1))
	board.CompactAbove(1)

	assert.True(t, board.Occupied(0, 0), "row below the cleared row is untouched")
	assert.True(t, board.Occupied(1, 1), "row 2 moved to row 1")
	assert.True(t, board.Occupied(2, 2), "row 3 moved to row 2")
	for x := 0; x < 3; x++ {
		assert.False(t, board.Occupied(x, 3), "top row is empty after compaction")
	}
}

func TestBoard_RowsIsACopy(t *testing.T) {
	board, _ := NewBoard(2, 2)
	rows := board.Rows()
	rows[0][0] = BlockOf(TypeL)
	assert.False(t, board.Occupied(0, 0))

	clone := board.Clone()
	clone.Set(1, 1, BlockOf(TypeJ))
	assert.False(t, board.Occupied(1, 1))
}

func TestBlockType_PieceType(t *testing.T) {
	pt, ok := BlockOf(TypeZ).PieceType()
	assert.True(t, ok)
	assert.Equal(t, TypeZ, pt)

	_, ok = BlockEmpty.PieceType()
	assert.False(t, ok)
}
