package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Panchalparth471/app-backend/internal/middleware"
	"github.com/Panchalparth471/app-backend/internal/models"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims models.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	verifier, err := middleware.NewJWTVerifier(testSecret, zap.NewNop())
	require.NoError(t, err)
	r := gin.New()
	r.GET("/private", middleware.Auth(verifier, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.ContextUserIDKey))
	})
	return r
}

func TestAuth(t *testing.T) {
	r := newAuthRouter(t)
	valid := signToken(t, testSecret, models.Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	subjectOnly := signToken(t, testSecret, models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	expired := signToken(t, testSecret, models.Claims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	wrongKey := signToken(t, "other", models.Claims{UserID: "user-1"})
	noUser := signToken(t, testSecret, models.Claims{})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "user-1"},
		{"subject fallback", "bearer " + subjectOnly, http.StatusOK, "user-2"},
		{"missing header", "", http.StatusUnauthorized, "Missing token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Missing token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Token expired"},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, "Invalid token"},
		{"no user", "Bearer " + noUser, http.StatusUnauthorized, "Invalid token"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	_, err := middleware.NewJWTVerifier("", zap.NewNop())
	assert.Error(t, err)
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(middleware.ZapLogger(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/health", "/ok?x=1", "/bad", "/boom"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if path != "/health" {
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
		}
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok?x=1", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestZapLogger_KeepsIncomingRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ZapLogger(zap.NewNop()))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
