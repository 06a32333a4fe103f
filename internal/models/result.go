package models

import (
	"time"
)

// ゲーム結果の種類
const (
	OutcomeVictory   = "victory"
	OutcomeGameOver  = "game_over"
	OutcomeAbandoned = "abandoned" // プレイ中に切断された
)

// Result はresultsテーブルのレコードに対応する構造体です。
type Result struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`    // UUID
	SessionID       string    `json:"session_id"` // ルームID
	Outcome         string    `json:"outcome"`
	PlacementPoints int       `json:"placement_points"`
	LinesCleared    int       `json:"lines_cleared"`
	CreatedAt       time.Time `json:"created_at"`
}

// ResultResponse はAPI レスポンス用の構造体です。
type ResultResponse struct {
	Result
	Rank int `json:"rank"` // ランキング順位
}
