package tetris

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// PieceType はテトリミノの種類を表します。カタログ内のインデックスと一致します。
type PieceType int

// デフォルトカタログでの種類ID
const (
	TypeI PieceType = iota // 0: I-ミノ
	TypeO                  // 1: O-ミノ
	TypeT                  // 2: T-ミノ
	TypeS                  // 3: S-ミノ
	TypeZ                  // 4: Z-ミノ
	TypeJ                  // 5: J-ミノ
	TypeL                  // 6: L-ミノ
)

// PieceSpec はカタログ内の1種類分のテトリミノ定義です。
//
//	Cells          : 基準点からの相対座標 (dx, dy)。y は上向き。
//	RotationAnchor : 回転の中心（マスの中心を整数座標とした小数座標）
//	SpawnOffset    : 出現位置に加えるオフセット (dx, dy, dz)。dz は2Dボードでは使いません。
type PieceSpec struct {
	Name           string     `json:"name"`
	Cells          [][2]int   `json:"cells"`
	RotationAnchor [2]float64 `json:"rotationAnchorPoint"`
	SpawnOffset    [3]int     `json:"spawnOffset"`
}

// Catalog はピース形状の供給元です。
type Catalog interface {
	// Types はカタログに登録されている全種類をカタログ順で返します。
	Types() []PieceType
	// Lookup は指定された種類の定義を返します。
	Lookup(t PieceType) (PieceSpec, bool)
}

// StaticCatalog はスライスで保持するカタログです。インデックスが PieceType になります。
type StaticCatalog []PieceSpec

func (c StaticCatalog) Types() []PieceType {
	types := make([]PieceType, len(c))
	for i := range c {
		types[i] = PieceType(i)
	}
	return types
}

func (c StaticCatalog) Lookup(t PieceType) (PieceSpec, bool) {
	if t < 0 || int(t) >= len(c) {
		return PieceSpec{}, false
	}
	return c[t], true
}

// TypeByName は名前（"I", "O" など）から種類IDを探します。
func (c StaticCatalog) TypeByName(name string) (PieceType, bool) {
	for i, spec := range c {
		if spec.Name == name {
			return PieceType(i), true
		}
	}
	return 0, false
}

// DefaultCatalog は標準の7種類のテトリミノを返します。
func DefaultCatalog() StaticCatalog {
	return StaticCatalog{
		TypeI: {Name: "I", Cells: [][2]int{{-1, 0}, {0, 0}, {1, 0}, {2, 0}}, RotationAnchor: [2]float64{0.5, -0.5}},
		TypeO: {Name: "O", Cells: [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, RotationAnchor: [2]float64{0.5, 0.5}},
		TypeT: {Name: "T", Cells: [][2]int{{-1, 0}, {0, 0}, {1, 0}, {0, 1}}},
		TypeS: {Name: "S", Cells: [][2]int{{-1, 0}, {0, 0}, {0, 1}, {1, 1}}},
		TypeZ: {Name: "Z", Cells: [][2]int{{-1, 1}, {0, 1}, {0, 0}, {1, 0}}},
		TypeJ: {Name: "J", Cells: [][2]int{{-1, 1}, {-1, 0}, {0, 0}, {1, 0}}},
		TypeL: {Name: "L", Cells: [][2]int{{-1, 0}, {0, 0}, {1, 0}, {1, 1}}},
	}
}

// LoadCatalogFile はJSONファイルからカタログを読み込みます。
// ファイルは PieceSpec の配列です。
func LoadCatalogFile(path string) (StaticCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("カタログファイルの読み込みに失敗しました: %w", err)
	}
	var catalog StaticCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("カタログファイルのパースに失敗しました: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Validate はカタログが空でなく、各定義が1マス以上を持ち、名前が重複しないことを確認します。
// 4方向すべての回転で、セルが重ならず上下左右につながっていることも確認します。
func (c StaticCatalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: empty catalog", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c))
	for i, spec := range c {
		if len(spec.Cells) == 0 {
			return fmt.Errorf("%w: catalog entry %d (%q) has no cells", ErrInvalidConfig, i, spec.Name)
		}
		if spec.Name != "" && seen[spec.Name] {
			return fmt.Errorf("%w: duplicate catalog name %q", ErrInvalidConfig, spec.Name)
		}
		seen[spec.Name] = true
		for rotation := 0; rotation < 360; rotation += 90 {
			if err := checkShape(spec.Rotated(rotation)); err != nil {
				return fmt.Errorf("%w: catalog entry %d (%q) at rotation %d: %v", ErrInvalidConfig, i, spec.Name, rotation, err)
			}
		}
	}
	return nil
}

// checkShape はセルが重複せず、1つの連結した形になっているかを確認します。
func checkShape(cells [][2]int) error {
	occupied := make(map[[2]int]bool, len(cells))
	for _, cell := range cells {
		if occupied[cell] {
			return fmt.Errorf("cells overlap at %v", cell)
		}
		occupied[cell] = true
	}

	visited := map[[2]int]bool{cells[0]: true}
	queue := [][2]int{cells[0]}
	for len(queue) > 0 {
		cell := queue[0]
		queue = queue[1:]
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			next := [2]int{cell[0] + d[0], cell[1] + d[1]}
			if occupied[next] && !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	if len(visited) != len(cells) {
		return fmt.Errorf("cells are not connected: %v", cells)
	}
	return nil
}

// ShapeOf は指定回転（0, 90, 180, 270）でのセル相対座標を返します。
func ShapeOf(c Catalog, t PieceType, rotation int) ([][2]int, error) {
	spec, ok := c.Lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPieceType, t)
	}
	return spec.Rotated(rotation), nil
}

// SpawnOffsetOf は指定された種類の出現オフセットを返します。
func SpawnOffsetOf(c Catalog, t PieceType) ([3]int, error) {
	spec, ok := c.Lookup(t)
	if !ok {
		return [3]int{}, fmt.Errorf("%w: %d", ErrUnknownPieceType, t)
	}
	return spec.SpawnOffset, nil
}

// Rotated は RotationAnchor を中心に時計回りへ rotation 度回したセル座標を返します。
// 結果は最も近い整数マスに丸められます。毎回カタログの形状から計算するため誤差は蓄積しません。
func (s PieceSpec) Rotated(rotation int) [][2]int {
	steps := normalizeRotation(rotation) / 90
	cells := make([][2]int, len(s.Cells))
	ax, ay := s.RotationAnchor[0], s.RotationAnchor[1]
	for i, cell := range s.Cells {
		fx := float64(cell[0]) - ax
		fy := float64(cell[1]) - ay
		for n := 0; n < steps; n++ {
			// y上向き座標系での時計回り90度
			fx, fy = fy, -fx
		}
		cells[i] = [2]int{int(math.Round(fx + ax)), int(math.Round(fy + ay))}
	}
	return cells
}

func normalizeRotation(rotation int) int {
	r := rotation % 360
	if r < 0 {
		r += 360
	}
	return r - r%90
}
