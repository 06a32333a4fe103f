package tetris

import "errors"

var (
	// ErrOutOfBounds はボード範囲外のマスにアクセスした場合に返されます。
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrEmptyBag は空のバッグから取り出そうとした場合に返されます。
	ErrEmptyBag = errors.New("piece bag is empty")
	// ErrUnknownPieceType はカタログに存在しないピース種別を参照した場合に返されます。
	ErrUnknownPieceType = errors.New("unknown piece type")
	// ErrInvalidConfig は不正なゲーム設定を表します。
	ErrInvalidConfig = errors.New("invalid game configuration")
)
