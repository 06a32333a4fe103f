package tetris

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
)

// State はゲームの状態です。GameOver と Victory は終端状態です。
type State int

const (
	StateFalling State = iota
	StateClearing
	StateGameOver
	StateVictory
)

func (s State) String() string {
	switch s {
	case StateFalling:
		return "falling"
	case StateClearing:
		return "clearing"
	case StateGameOver:
		return "game_over"
	case StateVictory:
		return "victory"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal は以降のティックが処理されない状態かどうかを返します。
func (s State) IsTerminal() bool {
	return s == StateGameOver || s == StateVictory
}

// Command はプレイヤー操作です。
// 1ティックで扱うのは左右移動・回転・ソフトドロップの各グループにつき最初の1つだけです。
type Command int

const (
	CommandMoveLeft Command = iota
	CommandMoveRight
	CommandRotateClockwise
	CommandRotateCounterClockwise
	CommandSoftDrop
)

// ParseCommand はクライアントから送られるアクション文字列をコマンドに変換します。
func ParseCommand(action string) (Command, bool) {
	switch action {
	case "move_left":
		return CommandMoveLeft, true
	case "move_right":
		return CommandMoveRight, true
	case "rotate", "rotate_right":
		return CommandRotateClockwise, true
	case "rotate_left":
		return CommandRotateCounterClockwise, true
	case "soft_drop":
		return CommandSoftDrop, true
	default:
		return 0, false
	}
}

func (c Command) String() string {
	switch c {
	case CommandMoveLeft:
		return "move_left"
	case CommandMoveRight:
		return "move_right"
	case CommandRotateClockwise:
		return "rotate_right"
	case CommandRotateCounterClockwise:
		return "rotate_left"
	case CommandSoftDrop:
		return "soft_drop"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// commandGroup は1ティックに1回しか扱わない操作のまとまりです。
type commandGroup int

const (
	groupLateral commandGroup = iota
	groupRotate
	groupSoftDrop
	groupCount
)

func (c Command) group() (commandGroup, bool) {
	switch c {
	case CommandMoveLeft, CommandMoveRight:
		return groupLateral, true
	case CommandRotateClockwise, CommandRotateCounterClockwise:
		return groupRotate, true
	case CommandSoftDrop:
		return groupSoftDrop, true
	}
	return 0, false
}

// Game は1人分のゲームを管理するステートマシンです。
// ボード、落下中のピース、バッグ、カウンタはすべてこの値が排他的に所有します。
// 並行アクセスは想定していないため、複数のゴルーチンから使う場合は呼び出し側で排他制御してください。
type Game struct {
	config  Config
	catalog tetris.Catalog

	board   *tetris.Board
	bag     *PieceBag
	current *tetris.Piece // 落下中のピース。固定後は nil

	state           State
	placementPoints int
	linesCleared    int
	fallElapsed     time.Duration
	ticks           uint64
}

// TickResult は1ティック分の処理結果です。
type TickResult struct {
	State        State
	Spawned      bool      // このティックで新しいピースが出現した
	Fell         bool      // 自動落下で1段下がった
	Locked       bool      // ピースが固定された（浸水による終了を含む）
	LinesCleared int       // このティックで消去した行数
	Applied      []Command // 受理されたコマンド
}

// Changed はこのティックで盤面やピースに変化があったかを返します。
func (r TickResult) Changed() bool {
	return r.Spawned || r.Fell || r.Locked || r.LinesCleared > 0 || len(r.Applied) > 0
}

// NewGame は設定を検証し、新しいゲームを開始します。
// 設定が不正な場合はエラーを返し、ゲームは作成されません。
//
// Parameters:
//   cfg     : ゲーム設定
//   catalog : ピース形状の供給元
// Returns:
//   *Game: 最初のピースが出現済みのゲーム
//   error: 設定エラー
func NewGame(cfg Config, catalog tetris.Catalog) (*Game, error) {
	if err := cfg.Validate(catalog); err != nil {
		return nil, err
	}
	board, err := tetris.NewBoard(cfg.BoardWidth, cfg.BoardHeight)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	types := cfg.resolvePieceTypes(catalog)
	cfg.PieceTypes = append([]tetris.PieceType(nil), types...)

	g := &Game{
		config:  cfg,
		catalog: catalog,
		board:   board,
		bag:     NewPieceBag(types, rng),
		state:   StateFalling,
	}
	g.bag.Refill()
	g.spawnNext()
	return g, nil
}

// Advance はゲームを1ティック進めます。
// 落下タイマーによる処理を先に行い、その後でコマンドを受け取った順に適用します。
// 終端状態では何もしません。負の delta は 0 として扱います。
func (g *Game) Advance(delta time.Duration, commands ...Command) TickResult {
	if g.state.IsTerminal() {
		return TickResult{State: g.state}
	}
	if delta < 0 {
		delta = 0
	}
	g.ticks++

	var res TickResult
	switch g.state {
	case StateFalling:
		g.stepFalling(delta, commands, &res)
	case StateClearing:
		res.LinesCleared = g.stepClearing()
	}
	res.State = g.state
	return res
}

func (g *Game) stepFalling(delta time.Duration, commands []Command, res *TickResult) {
	if g.current == nil {
		if !g.spawnNext() {
			return
		}
		res.Spawned = true
	}

	g.fallElapsed += delta
	if g.fallElapsed >= g.config.FallInterval {
		g.fallElapsed = 0
		if g.Translate(0, -1) {
			res.Fell = true
		} else {
			res.Locked = true
			g.lockCurrent()
			return
		}
	}

	// 各グループの最初のコマンドが枠を消費する。壁などで拒否されても同じグループの後続は無視
	var used [groupCount]bool
	for _, cmd := range commands {
		group, ok := cmd.group()
		if !ok || used[group] {
			continue
		}
		used[group] = true
		if g.Apply(cmd) {
			res.Applied = append(res.Applied, cmd)
		}
	}
}

func (g *Game) stepClearing() int {
	cleared := ClearLines(g.board)
	g.linesCleared += cleared

	if g.placementPoints >= g.config.PointsToWin {
		g.state = StateVictory
		log.Printf("[Game] Victory: placementPoints=%d pointsToWin=%d linesCleared=%d", g.placementPoints, g.config.PointsToWin, g.linesCleared)
		return cleared
	}
	g.state = StateFalling
	return cleared
}

// State は現在の状態を返します。
func (g *Game) State() State { return g.state }

// PlacementPoints は浸水せずに固定できたピースの数を返します。
func (g *Game) PlacementPoints() int { return g.placementPoints }

// LinesCleared はこれまでに消去した行数を返します。
func (g *Game) LinesCleared() int { return g.linesCleared }

// Config は NewGame で確定した設定を返します。
func (g *Game) Config() Config { return g.config }

// CurrentPiece は落下中のピースのコピーを返します。存在しない場合は nil です。
func (g *Game) CurrentPiece() *tetris.Piece {
	if g.current == nil {
		return nil
	}
	return g.current.Clone()
}

// Board はボードのコピーを返します。
func (g *Game) Board() *tetris.Board {
	return g.board.Clone()
}

// PieceView は描画用のピース情報です。
type PieceView struct {
	Type     tetris.PieceType `json:"type"`
	Name     string           `json:"name"`
	X        int              `json:"x"`
	Y        int              `json:"y"`
	Rotation int              `json:"rotation"`
	Cells    [][2]int         `json:"cells"` // ボード上の絶対座標
}

// Snapshot は観測者（描画、スコア表示、送信）向けのゲーム状態です。
// Board は board[y][x] で y=0 が最下段です。
type Snapshot struct {
	Width           int                  `json:"width"`
	Height          int                  `json:"height"`
	FloodLevel      int                  `json:"flood_level"`
	Board           [][]tetris.BlockType `json:"board"`
	CurrentPiece    *PieceView           `json:"current_piece"`
	NextPieces      []tetris.PieceType   `json:"next_pieces"`
	State           string               `json:"state"`
	PlacementPoints int                  `json:"placement_points"`
	PointsToWin     int                  `json:"points_to_win"`
	LinesCleared    int                  `json:"lines_cleared"`
	Ticks           uint64               `json:"ticks"`
}

// previewSize は Snapshot に含める次のピースの数です。
const previewSize = 3

// Snapshot は現在の状態のコピーを返します。
func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{
		Width:           g.board.Width(),
		Height:          g.board.Height(),
		FloodLevel:      g.config.FloodLevel,
		Board:           g.board.Rows(),
		NextPieces:      g.bag.Peek(previewSize),
		State:           g.state.String(),
		PlacementPoints: g.placementPoints,
		PointsToWin:     g.config.PointsToWin,
		LinesCleared:    g.linesCleared,
		Ticks:           g.ticks,
	}
	if g.current != nil {
		view := &PieceView{
			Type:     g.current.Type,
			X:        g.current.X,
			Y:        g.current.Y,
			Rotation: g.current.Rotation,
		}
		if spec, ok := g.catalog.Lookup(g.current.Type); ok {
			view.Name = spec.Name
		}
		view.Cells, _ = g.current.Cells(g.catalog, 0, 0)
		snap.CurrentPiece = view
	}
	return snap
}
