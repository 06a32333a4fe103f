package tetris

import (
	"log"
	"math"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
)

// spawnNext はバッグから次の種類を取り出してピースを出現させます。
// バッグが空になった場合はすぐに補充し、次のピースのプレビューを切らさないようにします。
// 出現できなかった場合（ゲームオーバー）は false を返します。
func (g *Game) spawnNext() bool {
	pieceType, err := g.bag.Next()
	if err != nil {
		// 補充を怠らない限り起こらない
		log.Printf("[Game] バッグが空のため補充します: %v", err)
		g.bag.Refill()
		if pieceType, err = g.bag.Next(); err != nil {
			log.Printf("[Game] ピースを取り出せません: %v", err)
			g.state = StateGameOver
			return false
		}
	}
	if g.bag.Len() == 0 {
		g.bag.Refill()
	}
	return g.spawn(pieceType)
}

// spawn は指定された種類のピースを出現位置に置きます。
// 出現位置: (round(width/2), height-1) + カタログの出現オフセット、回転は0度。
// 出現位置が既存のブロックと重なっている場合はゲームオーバーになります。
func (g *Game) spawn(pieceType tetris.PieceType) bool {
	offset, err := tetris.SpawnOffsetOf(g.catalog, pieceType)
	if err != nil {
		log.Printf("[Game] 出現オフセットの取得に失敗しました: %v", err)
		g.state = StateGameOver
		return false
	}

	g.current = &tetris.Piece{
		Type:     pieceType,
		X:        int(math.Round(float64(g.board.Width())/2)) + offset[0],
		Y:        g.board.Height() - 1 + offset[1],
		Rotation: 0,
	}
	g.fallElapsed = 0

	if g.overlapsBoard(g.current) {
		log.Printf("[Game] Block out: piece %d spawned on occupied cells at (%d,%d)", pieceType, g.current.X, g.current.Y)
		g.current = nil
		g.state = StateGameOver
		return false
	}
	return true
}

// overlapsBoard はピースのいずれかのセルが既存ブロックと重なっているかを判定します。
// 壁や浸水ラインは対象外です。
func (g *Game) overlapsBoard(p *tetris.Piece) bool {
	cells, err := p.Cells(g.catalog, 0, 0)
	if err != nil {
		return true
	}
	for _, cell := range cells {
		if g.board.Occupied(cell[0], cell[1]) {
			return true
		}
	}
	return false
}

// Translate は落下中のピースを (dx, dy) だけ動かします。
// 衝突する場合は位置を変えずに false を返します。
func (g *Game) Translate(dx, dy int) bool {
	if g.state != StateFalling || g.current == nil {
		return false
	}
	if CheckCollision(g.board, g.catalog, g.current, g.config.FloodLevel, dx, dy).Blocked {
		return false
	}
	g.current.X += dx
	g.current.Y += dy
	return true
}

// Rotate は落下中のピースを現在の基準点のまま90度回転させます。
// 回転後の形が衝突する場合は元の向きのまま false を返します（壁蹴りはしません）。
func (g *Game) Rotate(clockwise bool) bool {
	if g.state != StateFalling || g.current == nil {
		return false
	}
	candidate := g.current.Clone()
	if clockwise {
		candidate.Rotate()
	} else {
		candidate.RotateCounterClockwise()
	}
	if CheckCollision(g.board, g.catalog, candidate, g.config.FloodLevel, 0, 0).Blocked {
		return false
	}
	g.current.Rotation = candidate.Rotation
	return true
}

// Apply は1つのコマンドを適用し、状態が変わった場合に true を返します。
func (g *Game) Apply(cmd Command) bool {
	switch cmd {
	case CommandMoveLeft:
		return g.Translate(-1, 0)
	case CommandMoveRight:
		return g.Translate(1, 0)
	case CommandRotateClockwise:
		return g.Rotate(true)
	case CommandRotateCounterClockwise:
		return g.Rotate(false)
	case CommandSoftDrop:
		// 固定はしない。着地の判定は落下タイマーに任せる
		return g.Translate(0, -1)
	}
	return false
}

// lock は落下中のピースをボードに書き込み、ピースを破棄します。
// いずれかのセルが浸水ライン以上なら何も書き込まずに true（浸水）を返します。
// 表示領域より上かつ浸水ライン未満のセルは書き込まれずに捨てられます。
func (g *Game) lock() (flooded bool) {
	piece := g.current
	g.current = nil
	if piece == nil {
		return false
	}

	cells, err := piece.Cells(g.catalog, 0, 0)
	if err != nil {
		log.Printf("[Game] 固定するピースの形状を取得できません: %v", err)
		return true
	}
	for _, cell := range cells {
		if cell[1] >= g.config.FloodLevel {
			return true
		}
	}

	block := tetris.BlockOf(piece.Type)
	for _, cell := range cells {
		if g.board.InBounds(cell[0], cell[1]) {
			g.board.Set(cell[0], cell[1], block)
		}
	}
	return false
}

// lockCurrent はピースを固定し、結果に応じて状態を遷移させます。
func (g *Game) lockCurrent() {
	if g.lock() {
		g.state = StateGameOver
		log.Printf("[Game] Game Over (flood): placementPoints=%d linesCleared=%d", g.placementPoints, g.linesCleared)
		return
	}
	g.placementPoints++
	g.state = StateClearing
}
