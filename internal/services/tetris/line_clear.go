package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
)

// ClearLines は揃った行を消去し、その上の行を1段ずつ下げます。
// 消去した行数を返します。
//
// 最上段から下に向かって走査します。走査済みの行（現在の行より上）は揃っていないことが
// 確定しているため、詰めた後に現在の行へ降りてくる行を再判定する必要はありません。
// 連続して揃った行があっても、それぞれちょうど1回だけ消去されます。
func ClearLines(board *tetris.Board) int {
	cleared := 0
	for y := board.Height() - 1; y >= 0; y-- {
		if !board.IsRowFull(y) {
			continue
		}
		board.ClearRow(y)
		board.CompactAbove(y)
		cleared++
	}
	return cleared
}
