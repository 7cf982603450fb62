package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/auth"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type ctxKey int

const sessionKey ctxKey = 1

// Authentication reads an optional Bearer token. Requests without one go through
// anonymously; a token that is present but invalid is rejected.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			slog.Error("expected authorization header format: Bearer <token>", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		claims, err := m.keys.ValidateToken(parts[1])
		if err != nil {
			slog.Error("invalid token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Your session has expired, please log in again"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		ctx = context.WithValue(ctx, sessionKey, auth.NewSession(parts[1], claims))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Authorize lets the request through only when the session carries one of roles.
func (m *Mid) Authorize(next gin.HandlerFunc, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)
		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please log in to continue"})
			return
		}
		for _, role := range roles {
			if claims.HasRole(role) {
				next(c)
				return
			}
		}
		slog.Error("role not permitted", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.Any("Roles", claims.Roles))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You are not allowed to do this"})
	}
}

// SessionFrom returns the session set by Authentication, or nil for anonymous requests.
func SessionFrom(c *gin.Context) *auth.Session {
	sess, _ := c.Request.Context().Value(sessionKey).(*auth.Session)
	return sess
}
