package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/services/tetris"
)

// authTimeout は接続後に認証メッセージを待つ時間です。
const authTimeout = 10 * time.Second

// GameHandler はゲーム関連のHTTPリクエスト（部屋作成、状態取得、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   sm             : セッションマネージャーへのポインタ
//   allowedOrigins : WebSocket接続を許可するOrigin。空なら全て許可
// Returns:
//   *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, allowedOrigins []string) *GameHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &GameHandler{
		sessionManager: sm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

// CreateRoom は認証済みユーザーの新しいゲームセッション（部屋）を作成します。
// POST /api/game/rooms
func (h *GameHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	roomID, err := h.sessionManager.CreateSession(userID)
	if err != nil {
		log.Printf("[GameHandler] Failed to create room for user %s: %v", userID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ルームの作成に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, map[string]string{"room_id": roomID, "message": "ルームを作成しました"})
}

// GetRoomStatus は特定のルームの現在の状態を返すハンドラーです。
// ルームの所有者以外には 403 を返します。
// GET /api/game/rooms/{roomID}
func (h *GameHandler) GetRoomStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "ルームIDが必要です")
		return
	}

	snapshot, ok := h.sessionManager.GetSnapshot(roomID)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたルームは見つかりませんでした")
		return
	}
	// BYPASS_AUTH ではリクエストごとにユーザーIDが変わるため所有者を確認しない
	if snapshot.UserID != userID && !middleware.BypassAuthEnabled() {
		log.Printf("[GameHandler] User %s denied access to room %s", userID, roomID)
		WriteErrorResponse(w, http.StatusForbidden, tetris.ErrNotSessionOwner.Error())
		return
	}
	WriteJSONResponse(w, http.StatusOK, snapshot)
}

// authMessage は接続直後にクライアントが送る認証メッセージです。
type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 最初のメッセージで認証した後、コネクションをセッションマネージャーに引き渡します。
// GET /api/game/ws/{roomID}
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "WebSocket接続にはルームIDが必要です")
		return
	}
	if _, ok := h.sessionManager.GetSnapshot(roomID); !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたルームは見つかりませんでした")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for room %s: %v", roomID, err)
		return
	}

	userID, err := h.authenticate(conn, roomID)
	if err != nil {
		log.Printf("[GameHandler] WebSocket auth failed for room %s: %v", roomID, err)
		conn.WriteJSON(map[string]string{"error": err.Error()})
		conn.Close()
		return
	}
	conn.WriteJSON(map[string]string{"type": "auth_success", "message": "Authentication successful"})

	// RegisterClient内で readPump と writePump ゴルーチンが開始される
	if err := h.sessionManager.RegisterClient(roomID, userID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register client %s to room %s: %v", userID, roomID, err)
		conn.WriteJSON(map[string]string{"error": err.Error()})
		conn.Close()
	}
}

// authenticate は認証メッセージを読み、ユーザーIDを返します。
// BYPASS_AUTH 有効時に BypassToken を受け取った場合はルームの所有者として扱います。
func (h *GameHandler) authenticate(conn *websocket.Conn, roomID string) (string, error) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, message, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	var msg authMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return "", errors.New("invalid auth message")
	}
	if msg.Type != "auth" {
		return "", errors.New("expected auth message")
	}

	if msg.Token == middleware.BypassToken && middleware.BypassAuthEnabled() {
		snapshot, ok := h.sessionManager.GetSnapshot(roomID)
		if !ok {
			return "", tetris.ErrSessionNotFound
		}
		log.Printf("[GameHandler] Using BYPASS_AUTH for user: %s", snapshot.UserID)
		return snapshot.UserID, nil
	}
	return middleware.ParseUserID(msg.Token)
}
