package tetris

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
)

// DefaultTickInterval はサーバー側でゲームを進める間隔です。
const DefaultTickInterval = 50 * time.Millisecond

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	UserID string          // このクライアントに紐づくユーザーのID
	Conn   *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send   chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	RoomID string          // このクライアントが現在参加しているルームのID
	closed bool            // チャネルが閉じられたかどうかのフラグ
	mu     sync.Mutex      // closedフラグ保護用
}

func newClient(roomID, userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		RoomID: roomID,
	}
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.Send <- message:
		return true
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// SessionManager はゲームセッションとWebSocketクライアント接続の全体を管理します。
// これはアプリケーション内でシングルトンとして動作することが想定されます。
type SessionManager struct {
	sessions     map[string]*GameSession // roomID -> GameSession
	clients      map[string]*Client      // userID -> Client
	unregister   chan *Client            // クライアント切断の通知用チャネル
	inputEvents  chan PlayerInputEvent   // クライアントからのプレイヤー操作入力を受け取るチャネル
	quit         chan struct{}
	quitOnce     sync.Once
	mu           sync.RWMutex // sessions と clients マップを保護
	config       Config
	catalog      tetris.Catalog
	resultRepo   database.ResultRepository // nil の場合は結果を保存しない
	tickInterval time.Duration
}

// NewSessionManager は新しい SessionManager を作成します。
// メインループは呼び出し側が go sm.Run() で開始します。
//
// Parameters:
//   cfg          : 各セッションのゲーム設定
//   catalog      : ピース形状
//   resultRepo   : 結果の保存先 (nil可)
//   tickInterval : ゲームを進める間隔。0以下なら DefaultTickInterval
// Returns:
//   *SessionManager: 初期化されたセッションマネージャーのポインタ
//   error          : 設定が不正な場合
func NewSessionManager(cfg Config, catalog tetris.Catalog, resultRepo database.ResultRepository, tickInterval time.Duration) (*SessionManager, error) {
	if err := cfg.Validate(catalog); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &SessionManager{
		sessions:     make(map[string]*GameSession),
		clients:      make(map[string]*Client),
		unregister:   make(chan *Client),
		inputEvents:  make(chan PlayerInputEvent, 512),
		quit:         make(chan struct{}),
		config:       cfg,
		catalog:      catalog,
		resultRepo:   resultRepo,
		tickInterval: tickInterval,
	}, nil
}

// Run は SessionManager のメインイベントループです。
// クライアントの切断、プレイヤー入力、ティックによるゲーム進行を処理します。
func (sm *SessionManager) Run() {
	ticker := time.NewTicker(sm.tickInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case client := <-sm.unregister:
			sm.removeClient(client)

		case event := <-sm.inputEvents:
			if err := sm.QueueInput(event.RoomID, event.UserID, event.Action); err != nil {
				log.Printf("[SessionManager] Input %q from user %s rejected: %v", event.Action, event.UserID, err)
			}

		case now := <-ticker.C:
			sm.Tick(now.Sub(last))
			last = now

		case <-sm.quit:
			log.Printf("[SessionManager] シャットダウンシグナルを受信、メインループを終了します")
			return
		}
	}
}

// Tick はプレイ中の全セッションを elapsed だけ進めます。
// 変化があったセッションには状態を送信し、終端に達したセッションは終了させます。
func (sm *SessionManager) Tick(elapsed time.Duration) {
	sm.mu.RLock()
	active := make([]*GameSession, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		if session.Status() == SessionPlaying {
			active = append(active, session)
		}
	}
	sm.mu.RUnlock()

	// ロック外で処理を実行
	for _, session := range active {
		res, stateChanged := session.advance(elapsed)
		if res.Changed() || stateChanged {
			sm.broadcast(session)
		}
		if res.State.IsTerminal() {
			sm.EndGameSession(session.ID)
		}
	}
}

// CreateSession は新しいゲームセッションを作成します。
// ゲームはクライアントが接続した時点で開始されます。
//
// Parameters:
//   userID : プレイヤーのユーザーID
// Returns:
//   string: 作成されたルームのID
//   error : エラーが発生した場合
func (sm *SessionManager) CreateSession(userID string) (string, error) {
	game, err := NewGame(sm.config, sm.catalog)
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	roomID := uuid.New().String()
	sm.mu.Lock()
	sm.sessions[roomID] = newGameSession(roomID, userID, game)
	sm.mu.Unlock()

	log.Printf("[SessionManager] Created new game session: %s for player %s", roomID, userID)
	return roomID, nil
}

// RegisterClient は新しいWebSocketクライアントをSessionManagerに登録し、
// 読み書きのゴルーチンを開始します。
//
// Parameters:
//   roomID : クライアントが参加するルームのID
//   userID : クライアントのユーザーID
//   conn   : WebSocketコネクション
// Returns:
//   error: ルームが存在しない、または他人のルームの場合
func (sm *SessionManager) RegisterClient(roomID, userID string, conn *websocket.Conn) error {
	client := newClient(roomID, userID, conn)
	if err := sm.attach(client); err != nil {
		return err
	}

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go sm.readPump(client)
	go client.writePump()

	log.Printf("[SessionManager] Client %s registered for room %s", userID, roomID)
	return nil
}

// attach はクライアントをルームに結び付け、待機中のセッションを開始します。
// 同じユーザーの既存の接続は置き換えられます。既存の接続が別のルームのものだった場合、
// そのルームは放棄として終了します。
func (sm *SessionManager) attach(client *Client) error {
	sm.mu.Lock()
	session, ok := sm.sessions[client.RoomID]
	if !ok {
		sm.mu.Unlock()
		return ErrSessionNotFound
	}
	if session.UserID != client.UserID {
		sm.mu.Unlock()
		return ErrNotSessionOwner
	}
	var abandonedRoom string
	if existing, exists := sm.clients[client.UserID]; exists {
		log.Printf("[SessionManager] Replacing existing connection for user %s", client.UserID)
		existing.SafeClose()
		if existing.Conn != nil {
			existing.Conn.Close()
		}
		if existing.RoomID != client.RoomID {
			abandonedRoom = existing.RoomID
		}
	}
	sm.clients[client.UserID] = client
	sm.mu.Unlock()

	if abandonedRoom != "" {
		log.Printf("[SessionManager] Player %s moved from room %s to %s. Ending previous session.", client.UserID, abandonedRoom, client.RoomID)
		sm.EndGameSession(abandonedRoom)
	}

	if session.start(time.Now()) {
		log.Printf("[SessionManager] Game session %s started for player %s", session.ID, session.UserID)
	}
	sm.broadcast(session)
	return nil
}

// QueueInput はプレイヤーの操作を次のティックで適用するために積みます。
//
// Parameters:
//   roomID : 対象ルームのID
//   userID : 操作したユーザーのID
//   action : 操作名 ("move_left" など)
// Returns:
//   error: 操作名が不明、ルームが存在しない、所有者が違う、プレイ中でない場合
func (sm *SessionManager) QueueInput(roomID, userID, action string) error {
	cmd, ok := ParseCommand(action)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	sm.mu.RLock()
	session, exists := sm.sessions[roomID]
	sm.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}
	if session.UserID != userID {
		return ErrNotSessionOwner
	}
	return session.queue(cmd)
}

// removeClient は切断したクライアントを登録解除します。
// プレイ中に切断した場合はセッションを終了させます。
func (sm *SessionManager) removeClient(client *Client) {
	sm.mu.Lock()
	registered, ok := sm.clients[client.UserID]
	if !ok || registered != client {
		// 再接続で置き換え済み
		sm.mu.Unlock()
		return
	}
	registered.SafeClose()
	delete(sm.clients, client.UserID)
	session, hasSession := sm.sessions[client.RoomID]
	sm.mu.Unlock()
	log.Printf("[SessionManager] Client unregistered: %s (Room: %s)", client.UserID, client.RoomID)

	if hasSession && session.Status() == SessionPlaying {
		log.Printf("[SessionManager] Player %s left room %s during game. Ending session.", client.UserID, client.RoomID)
		sm.EndGameSession(client.RoomID)
	}
}

// broadcast はセッションの現在の状態をそのルームのクライアントに送信します。
func (sm *SessionManager) broadcast(session *GameSession) {
	payload, err := json.Marshal(GameStateEvent{Type: "state", RoomID: session.ID, State: session.Snapshot()})
	if err != nil {
		log.Printf("[SessionManager] Error marshaling game state for room %s: %v", session.ID, err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, client := range sm.clients {
		if client.RoomID != session.ID {
			continue
		}
		if !client.SafeSend(payload) {
			log.Printf("[SessionManager] Failed to send to client %s (channel closed or full)", client.UserID)
		}
	}
}

// EndGameSession はゲームセッションを終了させ、結果をデータベースに記録し、セッションをクリーンアップします。
//
// Parameters:
//   roomID : 終了するルームのID
func (sm *SessionManager) EndGameSession(roomID string) {
	sm.mu.Lock()
	session, ok := sm.sessions[roomID]
	if !ok {
		sm.mu.Unlock()
		log.Printf("[SessionManager] EndGameSession called for non-existent room: %s", roomID)
		return
	}
	if !session.finish(time.Now()) {
		sm.mu.Unlock()
		return // 既に終了済み
	}
	delete(sm.sessions, roomID)

	var roomClients []*Client
	for userID, client := range sm.clients {
		if client.RoomID == roomID {
			roomClients = append(roomClients, client)
			delete(sm.clients, userID)
		}
	}
	sm.mu.Unlock()

	result := session.result()
	log.Printf("[SessionManager] Game session %s ended: outcome=%s points=%d lines=%d",
		roomID, result.Outcome, result.PlacementPoints, result.LinesCleared)
	sm.recordResult(result)

	// 最後の状態を送ってから切断する
	payload, err := json.Marshal(GameStateEvent{Type: "state", RoomID: roomID, State: session.Snapshot()})
	for _, client := range roomClients {
		if err == nil {
			client.SafeSend(payload)
		}
		client.SafeClose()
	}
}

func (sm *SessionManager) recordResult(result models.Result) {
	if sm.resultRepo == nil {
		return
	}
	if _, err := sm.resultRepo.CreateResult(nil, result); err != nil {
		log.Printf("[SessionManager] Failed to save result for room %s: %v", result.SessionID, err)
	}
}

// GetSnapshot は指定されたルームの現在の状態を返します。
func (sm *SessionManager) GetSnapshot(roomID string) (SessionSnapshot, bool) {
	sm.mu.RLock()
	session, ok := sm.sessions[roomID]
	sm.mu.RUnlock()
	if !ok {
		return SessionSnapshot{}, false
	}
	return session.Snapshot(), true
}

// Shutdown はSessionManagerを安全にシャットダウンします
func (sm *SessionManager) Shutdown() {
	log.Printf("[SessionManager] シャットダウン開始...")
	sm.quitOnce.Do(func() { close(sm.quit) })

	sm.mu.Lock()
	for userID, client := range sm.clients {
		log.Printf("[SessionManager] クライアント %s を切断中...", userID)
		if client.Conn != nil {
			client.Conn.Close()
		}
		client.SafeClose()
	}
	sm.clients = make(map[string]*Client)
	sm.sessions = make(map[string]*GameSession)
	sm.mu.Unlock()

	log.Printf("[SessionManager] シャットダウン完了")
}
