package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ogurasousui/hr-backoffice/internal/core/scope"
)

const scopeContextKey = "hr.scope"

// ScopeFromContext はリクエストに紐づくスコープを取り出します。
func ScopeFromContext(c *gin.Context) (scope.Context, bool) {
	value, ok := c.Get(scopeContextKey)
	if !ok {
		return scope.Context{}, false
	}
	sc, ok := value.(scope.Context)
	return sc, ok
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func abortUnauthenticated(c *gin.Context, message string) {
	var body errorEnvelope
	body.Error.Code = "UNAUTHENTICATED"
	body.Error.Message = message
	c.AbortWithStatusJSON(http.StatusUnauthorized, body)
}

// Auth はベアラートークンを検証し、スコープを一度だけ解決してコンテキストに格納します。
// トークンの subject がアイデンティティ参照として Gate に渡されます。
// maxTokenAge が正の場合、iat からの経過時間がそれを超えるトークンは拒否します。
func Auth(secret string, maxTokenAge time.Duration, gate scope.Resolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthenticated(c, "malformed authorization header")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthenticated(c, "invalid token")
			return
		}

		if maxTokenAge > 0 {
			if claims.IssuedAt == nil {
				abortUnauthenticated(c, "token missing issued-at claim")
				return
			}
			if time.Since(claims.IssuedAt.Time) > maxTokenAge {
				abortUnauthenticated(c, "token too old")
				return
			}
		}

		sc, err := gate.Resolve(c.Request.Context(), scope.Identity{UserID: claims.Subject})
		if err != nil {
			if errors.Is(err, scope.ErrUnauthenticated) {
				abortUnauthenticated(c, "identity cannot be resolved")
				return
			}
			logger.Error("scope resolution failed", zap.Error(err))
			var body errorEnvelope
			body.Error.Code = "INTERNAL"
			body.Error.Message = "internal error"
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			return
		}

		c.Set(scopeContextKey, sc)
		c.Next()
	}
}

// SetScope はテスト用にスコープを直接注入します。
func SetScope(c *gin.Context, sc scope.Context) {
	c.Set(scopeContextKey, sc)
}
