package tetris

import "fmt"

const (
	DefaultBoardWidth  = 8  // ボードの幅（デフォルト）
	DefaultBoardHeight = 16 // ボードの高さ（表示部分）
)

// BlockType はボード上のマスの中身を表します。
// 空でないマスには、固定されたピースの種類 + 1 が入ります。
type BlockType int

const (
	BlockEmpty BlockType = iota // 0: 空のマス
)

// BlockOf はピース種別に対応するブロックタイプを返します。
func BlockOf(t PieceType) BlockType {
	return BlockType(t + 1)
}

// PieceType はこのマスを埋めたピースの種類を返します。空マスの場合は false を返します。
func (b BlockType) PieceType() (PieceType, bool) {
	if b == BlockEmpty {
		return 0, false
	}
	return PieceType(b - 1), true
}

// Board は固定サイズのゲームボードです。
// cells[y][x] でアクセスし、y=0 が最下段（床）、y が大きいほど上になります。
type Board struct {
	width  int
	height int
	cells  [][]BlockType
}

// NewBoard は指定サイズの空ボードを作成します。
// 幅・高さが正でない場合はエラーを返します。
func NewBoard(width, height int) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: board size %dx%d", ErrInvalidConfig, width, height)
	}
	cells := make([][]BlockType, height)
	for y := range cells {
		cells[y] = make([]BlockType, width)
	}
	return &Board{width: width, height: height, cells: cells}, nil
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// InBounds は (x, y) がボードの表示範囲内かどうかを返します。
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Get は (x, y) のマスの中身を返します。範囲外の場合は ErrOutOfBounds を返します。
func (b *Board) Get(x, y int) (BlockType, error) {
	if !b.InBounds(x, y) {
		return BlockEmpty, fmt.Errorf("%w: get (%d,%d)", ErrOutOfBounds, x, y)
	}
	return b.cells[y][x], nil
}

// Set は (x, y) のマスに content を書き込みます。
func (b *Board) Set(x, y int, content BlockType) error {
	if !b.InBounds(x, y) {
		return fmt.Errorf("%w: set (%d,%d)", ErrOutOfBounds, x, y)
	}
	b.cells[y][x] = content
	return nil
}

// Occupied は範囲内かつ空でないマスの場合に true を返します。
func (b *Board) Occupied(x, y int) bool {
	return b.InBounds(x, y) && b.cells[y][x] != BlockEmpty
}

// IsRowFull は y 行目のすべてのマスが埋まっているかを判定します。
func (b *Board) IsRowFull(y int) bool {
	if y < 0 || y >= b.height {
		return false
	}
	for _, c := range b.cells[y] {
		if c == BlockEmpty {
			return false
		}
	}
	return true
}

// ClearRow は y 行目を空にします。範囲外の行は無視されます。
func (b *Board) ClearRow(y int) {
	if y < 0 || y >= b.height {
		return
	}
	for x := range b.cells[y] {
		b.cells[y][x] = BlockEmpty
	}
}

// CompactAbove は y より上のすべての行を1段ずつ下げ、最上段を空にします。
// y 行目の内容は y+1 行目で上書きされます。
func (b *Board) CompactAbove(y int) {
	if y < 0 {
		y = 0
	}
	for r := y + 1; r < b.height; r++ {
		copy(b.cells[r-1], b.cells[r])
	}
	if y < b.height {
		b.ClearRow(b.height - 1)
	}
}

// Rows はボード内容のコピーを返します（描画や送信用）。
func (b *Board) Rows() [][]BlockType {
	rows := make([][]BlockType, b.height)
	for y := range b.cells {
		rows[y] = append([]BlockType(nil), b.cells[y]...)
	}
	return rows
}

// Clone はボードのディープコピーを返します。
func (b *Board) Clone() *Board {
	return &Board{width: b.width, height: b.height, cells: b.Rows()}
}

// String は上段から順にボードを文字列化します（デバッグ用）。
func (b *Board) String() string {
	buf := make([]byte, 0, (b.width+1)*b.height)
	for y := b.height - 1; y >= 0; y-- {
		for x := 0; x < b.width; x++ {
			if b.cells[y][x] == BlockEmpty {
				buf = append(buf, '.')
			} else {
				buf = append(buf, '#')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
