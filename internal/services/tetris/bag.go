package tetris

import (
	"math/rand"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
)

// PieceBag はバッグ方式のランダマイザです。
// 1サイクル内では各種類がちょうど1回ずつ出現します。
type PieceBag struct {
	types   []tetris.PieceType // 1サイクル分の種類（カタログ順）
	pending []tetris.PieceType // 未消費のピース（先頭から消費）
	rng     *rand.Rand
}

// NewPieceBag は空のバッグを作成します。使用前に Refill を呼ぶ必要があります。
func NewPieceBag(types []tetris.PieceType, rng *rand.Rand) *PieceBag {
	return &PieceBag{
		types:   append([]tetris.PieceType(nil), types...),
		pending: make([]tetris.PieceType, 0, len(types)),
		rng:     rng,
	}
}

// Refill はバッグを全種類1つずつの状態に戻し、Fisher–Yates でシャッフルします。
func (b *PieceBag) Refill() {
	b.pending = append(b.pending[:0], b.types...)
	n := len(b.pending)
	for i := 0; i < n; i++ {
		j := i + b.rng.Intn(n-i)
		b.pending[i], b.pending[j] = b.pending[j], b.pending[i]
	}
}

// Next は先頭のピースを取り出して返します。
// 空の場合は tetris.ErrEmptyBag を返します。空になった後の補充は呼び出し側の責任です。
func (b *PieceBag) Next() (tetris.PieceType, error) {
	if len(b.pending) == 0 {
		return 0, tetris.ErrEmptyBag
	}
	next := b.pending[0]
	b.pending = b.pending[1:]
	return next, nil
}

// Peek は次に出現する最大 n 個のピースを消費せずに返します。
func (b *PieceBag) Peek(n int) []tetris.PieceType {
	if n > len(b.pending) {
		n = len(b.pending)
	}
	if n <= 0 {
		return nil
	}
	return append([]tetris.PieceType(nil), b.pending[:n]...)
}

// Len は未消費のピース数を返します。
func (b *PieceBag) Len() int {
	return len(b.pending)
}
