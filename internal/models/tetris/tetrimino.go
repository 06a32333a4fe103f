package tetris

// Piece は落下中のテトリミノの状態（種類、ボード上の基準点座標、回転角度）を表します。
// 形状そのものは持たず、カタログから都度求めます。
type Piece struct {
	Type     PieceType `json:"type"`     // テトリミノの種類
	X        int       `json:"x"`        // 基準点のX座標
	Y        int       `json:"y"`        // 基準点のY座標（上向き）
	Rotation int       `json:"rotation"` // 回転角度 (0, 90, 180, 270 度)
}

// Blocks は現在の回転状態での相対座標を返します。
func (p *Piece) Blocks(c Catalog) ([][2]int, error) {
	return ShapeOf(c, p.Type, p.Rotation)
}

// Cells は基準点に (dx, dy) を加えた位置での、ボード上の絶対座標を返します。
func (p *Piece) Cells(c Catalog, dx, dy int) ([][2]int, error) {
	blocks, err := p.Blocks(c)
	if err != nil {
		return nil, err
	}
	cells := make([][2]int, len(blocks))
	for i, block := range blocks {
		cells[i] = [2]int{p.X + block[0] + dx, p.Y + block[1] + dy}
	}
	return cells, nil
}

// Rotate はピースを時計回りに90度回転させます。
func (p *Piece) Rotate() {
	p.Rotation = (p.Rotation + 90) % 360
}

// RotateCounterClockwise はピースを反時計回りに90度回転させます。
func (p *Piece) RotateCounterClockwise() {
	p.Rotation = (p.Rotation - 90 + 360) % 360 // 負の値にならないように +360
}

// Clone は現在のPieceのコピーを返します。
// 操作前の状態を保持しつつ、操作後の状態を仮に試すために使います。
func (p *Piece) Clone() *Piece {
	newP := *p
	return &newP
}
