package tetris

import (
	"errors"
	"sync"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models"
)

// セッションのステータス
const (
	SessionWaiting  = "waiting"  // WebSocket接続待ち
	SessionPlaying  = "playing"  // プレイ中
	SessionFinished = "finished" // 終了済み
)

var (
	ErrSessionNotFound   = errors.New("room not found")
	ErrNotSessionOwner   = errors.New("room belongs to another user")
	ErrSessionNotPlaying = errors.New("room is not playing")
	ErrUnknownAction     = errors.New("unknown action")
)

// GameSession は1人用ゲームとそのセッション情報を保持します。
// Game 自体は並行安全ではないため、すべての操作は mu の下で行います。
type GameSession struct {
	ID     string
	UserID string

	mu        sync.Mutex
	status    string
	startedAt time.Time
	endedAt   time.Time
	game      *Game
	pending   []Command // 次のティックで適用するコマンド
}

// PlayerInputEvent はクライアントからの操作入力を表す構造体です。
// WebSocketを通じてサーバーに送信されます。
type PlayerInputEvent struct {
	UserID string `json:"-"`      // 接続から決まるためメッセージの値は使わない
	RoomID string `json:"-"`
	Action string `json:"action"` // "move_left", "move_right", "rotate", "rotate_left", "soft_drop"
}

// SessionSnapshot はセッションの送信用スナップショットです。
type SessionSnapshot struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Game      Snapshot  `json:"game"`
}

// GameStateEvent はゲーム状態の更新を通知するイベントです。
// WebSocketを通じてクライアントに送信されます。
type GameStateEvent struct {
	Type   string          `json:"type"` // 常に "state"
	RoomID string          `json:"room_id"`
	State  SessionSnapshot `json:"state"`
}

func newGameSession(id, userID string, game *Game) *GameSession {
	return &GameSession{
		ID:     id,
		UserID: userID,
		status: SessionWaiting,
		game:   game,
	}
}

// Status は現在のステータスを返します。
func (gs *GameSession) Status() string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.status
}

// Snapshot は現在のセッション状態のコピーを返します。
func (gs *GameSession) Snapshot() SessionSnapshot {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return SessionSnapshot{
		ID:        gs.ID,
		UserID:    gs.UserID,
		Status:    gs.status,
		StartedAt: gs.startedAt,
		EndedAt:   gs.endedAt,
		Game:      gs.game.Snapshot(),
	}
}

func (gs *GameSession) start(now time.Time) bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.status != SessionWaiting {
		return false
	}
	gs.status = SessionPlaying
	gs.startedAt = now
	return true
}

func (gs *GameSession) finish(now time.Time) bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.status == SessionFinished {
		return false
	}
	gs.status = SessionFinished
	gs.endedAt = now
	return true
}

func (gs *GameSession) queue(cmd Command) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.status != SessionPlaying {
		return ErrSessionNotPlaying
	}
	gs.pending = append(gs.pending, cmd)
	return nil
}

// advance は溜まったコマンドを渡してゲームを1ティック進めます。
// 2つ目の戻り値はゲームの状態が変わったかどうかです。
func (gs *GameSession) advance(elapsed time.Duration) (TickResult, bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.status != SessionPlaying {
		return TickResult{State: gs.game.State()}, false
	}
	before := gs.game.State()
	cmds := gs.pending
	gs.pending = nil
	res := gs.game.Advance(elapsed, cmds...)
	return res, res.State != before
}

// result は保存用の結果レコードを組み立てます。
// ゲームが終端に達していない場合は途中終了として扱います。
func (gs *GameSession) result() models.Result {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	outcome := models.OutcomeAbandoned
	switch gs.game.State() {
	case StateVictory:
		outcome = models.OutcomeVictory
	case StateGameOver:
		outcome = models.OutcomeGameOver
	}
	return models.Result{
		UserID:          gs.UserID,
		SessionID:       gs.ID,
		Outcome:         outcome,
		PlacementPoints: gs.game.PlacementPoints(),
		LinesCleared:    gs.game.LinesCleared(),
		CreatedAt:       gs.endedAt,
	}
}
