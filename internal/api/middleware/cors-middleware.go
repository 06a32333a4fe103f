package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/rs/cors"
)

// defaultAllowedOrigins はCORS_ALLOWED_ORIGINS未設定時に許可するオリジンです。
var defaultAllowedOrigins = []string{"http://localhost:3000"}

// AllowedOrigins はCORS_ALLOWED_ORIGINS (カンマ区切り) から許可オリジンを読み込みます。
func AllowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return defaultAllowedOrigins
	}
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// CORSHandler はCORS設定を適用するミドルウェアを返します。
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins, // フロントエンドのオリジン
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler
}
