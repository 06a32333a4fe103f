package tetris

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
)

// GameLoopSettings はゲーム全体に影響するデフォルト値です。
const (
	DefaultFallInterval = 600 * time.Millisecond // 自動落下の間隔
	DefaultPointsToWin  = 20                     // 勝利に必要な固定回数
	DefaultFloodMargin  = 2                      // ボード高さから浸水ラインまでの余白
)

// Config はゲームエンジンの設定です。
type Config struct {
	BoardWidth   int                `json:"boardWidth"`   // ボードの幅
	BoardHeight  int                `json:"boardHeight"`  // ボードの高さ
	FloodLevel   int                `json:"floodLevel"`   // この行以上にブロックが固定されるとゲームオーバー
	FallInterval time.Duration      `json:"fallInterval"` // 自動落下の間隔
	PointsToWin  int                `json:"pointsToWin"`  // 勝利に必要な placementPoints
	PieceTypes   []tetris.PieceType `json:"pieceTypes"`   // 使用するピース種別 (nil ならカタログの全種類)
	Seed         int64              `json:"seed"`         // 乱数シード (0 なら現在時刻)
}

// DefaultConfig はデフォルト値の Config を返します。
func DefaultConfig() Config {
	return Config{
		BoardWidth:   tetris.DefaultBoardWidth,
		BoardHeight:  tetris.DefaultBoardHeight,
		FloodLevel:   tetris.DefaultBoardHeight + DefaultFloodMargin,
		FallInterval: DefaultFallInterval,
		PointsToWin:  DefaultPointsToWin,
	}
}

// Validate は設定がカタログに対して有効かを確認します。
// PieceTypes が nil の場合はカタログの全種類を使います。
func (c Config) Validate(catalog tetris.Catalog) error {
	if c.BoardWidth <= 0 || c.BoardHeight <= 0 {
		return fmt.Errorf("%w: board size must be positive, got %dx%d", tetris.ErrInvalidConfig, c.BoardWidth, c.BoardHeight)
	}
	if c.FloodLevel <= 0 {
		return fmt.Errorf("%w: floodLevel must be positive, got %d", tetris.ErrInvalidConfig, c.FloodLevel)
	}
	if c.FallInterval <= 0 {
		return fmt.Errorf("%w: fallInterval must be positive, got %s", tetris.ErrInvalidConfig, c.FallInterval)
	}
	if c.PointsToWin <= 0 {
		return fmt.Errorf("%w: pointsToWin must be positive, got %d", tetris.ErrInvalidConfig, c.PointsToWin)
	}
	if catalog == nil {
		return fmt.Errorf("%w: catalog is required", tetris.ErrInvalidConfig)
	}
	types := c.resolvePieceTypes(catalog)
	if len(types) == 0 {
		return fmt.Errorf("%w: piece type set is empty", tetris.ErrInvalidConfig)
	}
	seen := make(map[tetris.PieceType]bool, len(types))
	for _, t := range types {
		// 1サイクルで同じ種類が二度出ないよう重複を拒否する
		if seen[t] {
			return fmt.Errorf("%w: duplicate piece type %d", tetris.ErrInvalidConfig, t)
		}
		seen[t] = true
		spec, ok := catalog.Lookup(t)
		if !ok {
			return fmt.Errorf("%w: %d has no catalog entry", tetris.ErrUnknownPieceType, t)
		}
		if len(spec.Cells) == 0 {
			return fmt.Errorf("%w: catalog entry %d has no cells", tetris.ErrInvalidConfig, t)
		}
	}
	return nil
}

func (c Config) resolvePieceTypes(catalog tetris.Catalog) []tetris.PieceType {
	if c.PieceTypes != nil {
		return c.PieceTypes
	}
	return catalog.Types()
}

// LoadConfigFromEnv は環境変数から Config を読み込みます。未設定の項目はデフォルト値を使います。
//
// 対応する環境変数: BOARD_WIDTH, BOARD_HEIGHT, FLOOD_LEVEL, FALL_INTERVAL (例: "600ms"),
// POINTS_TO_WIN, PIECE_TYPES (例: "I,O,T"), GAME_SEED
//
// Parameters:
//   typeByName : PIECE_TYPES の名前を種類IDに変換する関数（通常は StaticCatalog.TypeByName）
func LoadConfigFromEnv(typeByName func(string) (tetris.PieceType, bool)) (Config, error) {
	cfg := DefaultConfig()

	var err error
	if cfg.BoardWidth, err = envInt("BOARD_WIDTH", cfg.BoardWidth); err != nil {
		return cfg, err
	}
	if cfg.BoardHeight, err = envInt("BOARD_HEIGHT", cfg.BoardHeight); err != nil {
		return cfg, err
	}
	// 高さだけ変更された場合も浸水ラインが追従するようにする
	if cfg.FloodLevel, err = envInt("FLOOD_LEVEL", cfg.BoardHeight+DefaultFloodMargin); err != nil {
		return cfg, err
	}
	if cfg.PointsToWin, err = envInt("POINTS_TO_WIN", cfg.PointsToWin); err != nil {
		return cfg, err
	}
	if v := os.Getenv("FALL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: FALL_INTERVAL=%q: %v", tetris.ErrInvalidConfig, v, err)
		}
		cfg.FallInterval = d
	}
	if v := os.Getenv("GAME_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: GAME_SEED=%q: %v", tetris.ErrInvalidConfig, v, err)
		}
		cfg.Seed = seed
	}
	if v := os.Getenv("PIECE_TYPES"); v != "" {
		types, err := ParsePieceTypes(v, typeByName)
		if err != nil {
			return cfg, err
		}
		cfg.PieceTypes = types
	}
	return cfg, nil
}

// ParsePieceTypes はカンマ区切りのピース名リストを種類IDに変換します。
func ParsePieceTypes(list string, typeByName func(string) (tetris.PieceType, bool)) ([]tetris.PieceType, error) {
	types := []tetris.PieceType{}
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, ok := typeByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", tetris.ErrUnknownPieceType, name)
		}
		types = append(types, t)
	}
	return types, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q: %v", tetris.ErrInvalidConfig, key, v, err)
	}
	return n, nil
}
