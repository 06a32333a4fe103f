package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// echoUser はコンテキストのユーザーIDをそのまま返すハンドラーです。
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	w.Write([]byte(userID))
})

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("BYPASS_AUTH", "false")
	t.Setenv("SUPABASE_JWT_SECRET", testSecret)

	valid := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	wrongKey := signToken(t, "other", jwt.MapClaims{"sub": "user-1"})
	noSub := signToken(t, testSecret, jwt.MapClaims{"name": "user-1"})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "user-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", valid, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"missing sub", "Bearer " + noSub, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(echoUser).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestAuthMiddleware_MissingSecret(t *testing.T) {
	t.Setenv("BYPASS_AUTH", "")
	t.Setenv("SUPABASE_JWT_SECRET", "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	AuthMiddleware(echoUser).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthMiddleware_Bypass(t *testing.T) {
	t.Setenv("BYPASS_AUTH", "true")

	rec := httptest.NewRecorder()
	AuthMiddleware(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Body.String())
	assert.NoError(t, err, "bypass generates a uuid user")
}

func TestParseUserID(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-2"})

	userID, err := ParseUserID(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)

	userID, err = ParseUserID("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)

	_, err = ParseUserID("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCORSHandler(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	origins := AllowedOrigins()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, origins)

	handler := CORSHandler(origins)(echoUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://b.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://b.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Equal(t, []string{"http://localhost:3000"}, AllowedOrigins())
}
