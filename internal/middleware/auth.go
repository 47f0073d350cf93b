package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/models"
)

// ContextUserIDKey holds the authenticated user id in the gin context.
const ContextUserIDKey = "user_id"

// JWTVerifier checks HMAC-signed access tokens.
type JWTVerifier struct {
	secret []byte
	logger *zap.Logger
}

func NewJWTVerifier(secret string, logger *zap.Logger) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	return &JWTVerifier{secret: []byte(secret), logger: logger.Named("JWTVerifier")}, nil
}

// VerifyToken validates the signature and expiry and returns the claims.
func (v *JWTVerifier) VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		v.logger.Debug("Token rejected", zap.String("tokenSnippet", tokenSnippet(tokenString)), zap.Error(err))
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		default:
			return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
		}
	}
	if !token.Valid {
		return nil, models.ErrTokenInvalid
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user id missing", models.ErrTokenInvalid)
	}
	return claims, nil
}

// Auth requires a valid bearer token and stores the user id in the context.
func Auth(verifier *JWTVerifier, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			log.Warn("Missing or malformed Authorization header", zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, "Missing token")
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, models.ErrTokenExpired) {
				msg = "Token expired"
			}
			log.Warn("Token verification failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, msg)
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: msg})
}

func tokenSnippet(tokenString string) string {
	if len(tokenString) > 15 {
		return tokenString[:15] + "..."
	}
	return tokenString
}
