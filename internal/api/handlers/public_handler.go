package handlers

import (
	"net/http"

	modeltetris "github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/services/tetris"
)

// PublicHandler handles public API endpoints
type PublicHandler struct {
	config  tetris.Config
	catalog modeltetris.Catalog
}

// NewPublicHandler creates a new instance of PublicHandler
func NewPublicHandler(cfg tetris.Config, catalog modeltetris.Catalog) *PublicHandler {
	return &PublicHandler{config: cfg, catalog: catalog}
}

// pieceInfo はクライアントが形状を描画するためのピース定義です。
type pieceInfo struct {
	Type  modeltetris.PieceType `json:"type"`
	Name  string                `json:"name"`
	Cells [][2]int              `json:"cells"`
}

// GetGameInfo は盤面サイズ、ルール、ピース定義を返します。
// GET /api/public
func (h *PublicHandler) GetGameInfo(w http.ResponseWriter, r *http.Request) {
	pieces := make([]pieceInfo, 0)
	for _, t := range h.catalog.Types() {
		spec, ok := h.catalog.Lookup(t)
		if !ok {
			continue
		}
		pieces = append(pieces, pieceInfo{Type: t, Name: spec.Name, Cells: spec.Cells})
	}

	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"board_width":      h.config.BoardWidth,
		"board_height":     h.config.BoardHeight,
		"flood_level":      h.config.FloodLevel,
		"fall_interval_ms": h.config.FallInterval.Milliseconds(),
		"points_to_win":    h.config.PointsToWin,
		"pieces":           pieces,
	})
}
