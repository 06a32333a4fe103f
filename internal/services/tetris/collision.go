package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
)

// Collision は衝突判定の結果です。
// Flood はいずれかのセルが浸水ライン以上に達したことを表し、この場合 Blocked も true になります。
type Collision struct {
	Blocked bool
	Flood   bool
}

// CheckCollision は piece を (dx, dy) だけずらした位置が、壁・床・既存ブロック・浸水ラインと
// 衝突するかどうかを判定します。
//
// Parameters:
//   board      : 判定対象のボード
//   catalog    : ピース形状の供給元
//   piece      : 判定するピース（nil の場合は常に衝突扱い）
//   floodLevel : この行以上のセルは衝突かつ浸水扱い
//   dx, dy     : 基準点の移動量（dy は負で下方向）
// Returns:
//   Collision: 判定結果
func CheckCollision(board *tetris.Board, catalog tetris.Catalog, piece *tetris.Piece, floodLevel, dx, dy int) Collision {
	if piece == nil || board == nil {
		return Collision{Blocked: true}
	}
	cells, err := piece.Cells(catalog, dx, dy)
	if err != nil {
		return Collision{Blocked: true}
	}

	var result Collision
	for _, cell := range cells {
		x, y := cell[0], cell[1]

		// 左右の壁
		if x < 0 || x >= board.Width() {
			result.Blocked = true
			continue
		}
		// 床
		if y < 0 {
			result.Blocked = true
			continue
		}
		// 浸水ライン以上
		if y >= floodLevel {
			result.Blocked = true
			result.Flood = true
			continue
		}
		// 表示領域より上、浸水ライン未満ははみ出していても落下を続けられる
		if y >= board.Height() {
			continue
		}
		if board.Occupied(x, y) {
			result.Blocked = true
		}
	}
	return result
}
