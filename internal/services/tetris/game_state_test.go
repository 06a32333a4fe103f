package tetris

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
)

func TestNewGame(t *testing.T) {
	g := newTestGame(t, nil)

	assert.Equal(t, StateFalling, g.State())
	assert.Equal(t, 0, g.PlacementPoints())
	assert.Equal(t, 0, g.LinesCleared())
	assert.NotNil(t, g.CurrentPiece())
	assert.Equal(t, []tetris.PieceType{testI, testO}, g.Config().PieceTypes)
	assert.Greater(t, g.bag.Len(), 0, "preview is always available")
}

func TestNewGame_InvalidConfig(t *testing.T) {
	catalog := tetris.DefaultCatalog()
	valid := DefaultConfig()

	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"zero width", func(c *Config) { c.BoardWidth = 0 }, tetris.ErrInvalidConfig},
		{"negative height", func(c *Config) { c.BoardHeight = -3 }, tetris.ErrInvalidConfig},
		{"zero flood level", func(c *Config) { c.FloodLevel = 0 }, tetris.ErrInvalidConfig},
		{"zero fall interval", func(c *Config) { c.FallInterval = 0 }, tetris.ErrInvalidConfig},
		{"zero points to win", func(c *Config) { c.PointsToWin = 0 }, tetris.ErrInvalidConfig},
		{"empty type set", func(c *Config) { c.PieceTypes = []tetris.PieceType{} }, tetris.ErrInvalidConfig},
		{"missing catalog entry", func(c *Config) { c.PieceTypes = []tetris.PieceType{tetris.TypeI, 9} }, tetris.ErrUnknownPieceType},
		{"duplicate type", func(c *Config) { c.PieceTypes = []tetris.PieceType{tetris.TypeI, tetris.TypeO, tetris.TypeI} }, tetris.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			g, err := NewGame(cfg, catalog)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err := NewGame(valid, tetris.StaticCatalog{})
	assert.ErrorIs(t, err, tetris.ErrInvalidConfig)
	_, err = NewGame(valid, nil)
	assert.ErrorIs(t, err, tetris.ErrInvalidConfig)
}

// TestScenario_MoveRotateAndLock は 8x16 / 浸水ライン18 / {I, O} のシナリオです。
// 出現 (4,15) → 左移動 → 時計回り回転 → 落下間隔16回分で最下段に固定され、
// placementPoints が 1 になり Clearing を経て Falling に戻ります。
func TestScenario_MoveRotateAndLock(t *testing.T) {
	g := newTestGame(t, nil)

	piece := g.CurrentPiece()
	require.NotNil(t, piece)
	assert.Equal(t, 4, piece.X)
	assert.Equal(t, 15, piece.Y)

	res := g.Advance(0, CommandMoveLeft)
	assert.Equal(t, []Command{CommandMoveLeft}, res.Applied)
	assert.Equal(t, 3, g.current.X)

	res = g.Advance(0, CommandRotateClockwise)
	assert.Equal(t, []Command{CommandRotateClockwise}, res.Applied)
	assert.Equal(t, 90, g.current.Rotation)

	locks := 0
	sawClearing := false
	for i := 0; i < 16; i++ {
		res = g.Advance(testInterval)
		if res.Locked {
			locks++
			assert.Equal(t, StateClearing, res.State)
			sawClearing = true
		}
	}
	require.Equal(t, 1, locks)
	assert.True(t, sawClearing)
	assert.Equal(t, 1, g.PlacementPoints())

	// 最下段にブロックがあること
	bottom := 0
	for x := 0; x < 8; x++ {
		if g.board.Occupied(x, 0) {
			bottom++
		}
	}
	assert.Greater(t, bottom, 0)

	// Clearing の評価後は Falling に戻る
	for i := 0; i < 2 && g.State() == StateClearing; i++ {
		g.Advance(testInterval)
	}
	assert.Equal(t, StateFalling, g.State())
	assert.Equal(t, 1, g.PlacementPoints())
}

// TestScoring は m 回の固定で placementPoints が m になることを確認します。
func TestScoring(t *testing.T) {
	g := newTestGame(t, nil)

	locks := 0
	for i := 0; i < 1000 && locks < 3; i++ {
		res := g.Advance(testInterval)
		require.NotEqual(t, StateGameOver, res.State)
		if res.Locked {
			locks++
			assert.Equal(t, locks, g.PlacementPoints())
		}
	}
	assert.Equal(t, 3, locks)
	assert.Equal(t, 3, g.PlacementPoints())
}

// TestVictory は placementPoints が pointsToWin に達した次の Clearing 評価で勝利することを確認します。
func TestVictory(t *testing.T) {
	g := newTestGame(t, func(c *Config) { c.PointsToWin = 1 })
	placePiece(g, testO, 3, 0, 0)

	res := g.Advance(testInterval)
	assert.True(t, res.Locked)
	assert.Equal(t, StateClearing, res.State)
	assert.Equal(t, 1, g.PlacementPoints())

	res = g.Advance(0)
	assert.Equal(t, StateVictory, res.State)
	assert.True(t, g.State().IsTerminal())

	// 終端状態では何も処理されない
	snap := g.Snapshot()
	res = g.Advance(time.Hour, CommandMoveLeft)
	assert.Equal(t, StateVictory, res.State)
	assert.False(t, res.Changed())
	assert.Equal(t, snap, g.Snapshot())
}

// TestClearingRemovesFullRow は固定でそろった行が次のティックで消えることを確認します。
func TestClearingRemovesFullRow(t *testing.T) {
	g := newTestGame(t, nil)
	// 最下段を x=0..5 まで埋め、残り2マスにOミノを落とす
	for x := 0; x < 6; x++ {
		g.board.Set(x, 0, tetris.BlockOf(testI))
	}
	placePiece(g, testO, 6, 0, 0)

	res := g.Advance(testInterval)
	require.True(t, res.Locked)

	res = g.Advance(0)
	assert.Equal(t, 1, res.LinesCleared)
	assert.Equal(t, 1, g.LinesCleared())
	assert.Equal(t, StateFalling, res.State)
	// Oミノの上半分が最下段に降りてくる
	assert.True(t, g.board.Occupied(6, 0))
	assert.True(t, g.board.Occupied(7, 0))
	assert.False(t, g.board.Occupied(0, 0))
}

func TestAdvance_TimerAccumulates(t *testing.T) {
	g := newTestGame(t, nil)
	startY := g.current.Y

	res := g.Advance(testInterval / 2)
	assert.False(t, res.Fell)
	assert.Equal(t, startY, g.current.Y)

	res = g.Advance(testInterval / 2)
	assert.True(t, res.Fell)
	assert.Equal(t, startY-1, g.current.Y)

	// 負の経過時間は 0 として扱う
	res = g.Advance(-time.Second)
	assert.False(t, res.Fell)
	res = g.Advance(testInterval)
	assert.True(t, res.Fell)
}

func TestAdvance_DuplicateCommandsAppliedOnce(t *testing.T) {
	g := newTestGame(t, nil)
	placePiece(g, testO, 3, 8, 0)

	res := g.Advance(0, CommandMoveLeft, CommandMoveLeft, CommandMoveLeft)
	assert.Equal(t, []Command{CommandMoveLeft}, res.Applied)
	assert.Equal(t, 2, g.current.X)

	res = g.Advance(0, CommandMoveRight, CommandRotateClockwise, Command(42))
	assert.Equal(t, []Command{CommandMoveRight, CommandRotateClockwise}, res.Applied)
}

func TestAdvance_OneLateralAndOneRotatePerTick(t *testing.T) {
	g := newTestGame(t, nil)
	placePiece(g, testO, 3, 8, 0)

	res := g.Advance(0, CommandMoveLeft, CommandMoveRight, CommandRotateClockwise, CommandRotateCounterClockwise)
	assert.Equal(t, []Command{CommandMoveLeft, CommandRotateClockwise}, res.Applied)
	assert.Equal(t, 2, g.current.X)
	assert.Equal(t, 90, g.current.Rotation)
}

func TestAdvance_RejectedLateralConsumesSlot(t *testing.T) {
	g := newTestGame(t, nil)
	placePiece(g, testO, 0, 8, 0)

	// 左壁で拒否された MoveLeft の後の MoveRight も適用されない
	res := g.Advance(0, CommandMoveLeft, CommandMoveRight)
	assert.Empty(t, res.Applied)
	assert.False(t, res.Changed())
	assert.Equal(t, 0, g.current.X)

	res = g.Advance(0, CommandMoveRight)
	assert.Equal(t, []Command{CommandMoveRight}, res.Applied)
	assert.Equal(t, 1, g.current.X)
}

func TestAdvance_SpawnsAfterClearing(t *testing.T) {
	g := newTestGame(t, nil)
	placePiece(g, testO, 3, 0, 0)

	g.Advance(testInterval) // 固定
	g.Advance(0)            // Clearing -> Falling
	require.Nil(t, g.current)

	res := g.Advance(0, CommandMoveRight)
	require.NotNil(t, g.current)
	assert.True(t, res.Spawned)
	assert.True(t, res.Changed())
	assert.Equal(t, []Command{CommandMoveRight}, res.Applied)
	assert.Equal(t, 5, g.current.X)
	assert.Equal(t, 15, g.current.Y)
}

func TestSnapshot(t *testing.T) {
	g := newTestGame(t, nil)
	placePiece(g, testO, 2, 3, 0)
	g.board.Set(0, 0, tetris.BlockOf(testI))

	snap := g.Snapshot()
	assert.Equal(t, 8, snap.Width)
	assert.Equal(t, 16, snap.Height)
	assert.Equal(t, 18, snap.FloodLevel)
	assert.Equal(t, "falling", snap.State)
	assert.Equal(t, 100, snap.PointsToWin)
	require.NotNil(t, snap.CurrentPiece)
	assert.Equal(t, "O", snap.CurrentPiece.Name)
	assert.Equal(t, [][2]int{{2, 3}, {3, 3}, {2, 4}, {3, 4}}, snap.CurrentPiece.Cells)
	assert.NotEmpty(t, snap.NextPieces)
	assert.Equal(t, tetris.BlockOf(testI), snap.Board[0][0])

	// スナップショットはコピー
	snap.Board[0][0] = tetris.BlockEmpty
	assert.True(t, g.board.Occupied(0, 0))

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"placement_points":0`)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "falling", StateFalling.String())
	assert.Equal(t, "clearing", StateClearing.String())
	assert.Equal(t, "game_over", StateGameOver.String())
	assert.Equal(t, "victory", StateVictory.String())
	assert.False(t, StateClearing.IsTerminal())
	assert.True(t, StateGameOver.IsTerminal())
}
