package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/session"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	sessionKey      = "session"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handlers) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String(requestIDKey, c.GetString(requestIDKey)))
	}
}

// withSession turns an optional bearer token into the request's Session.
// No header means an anonymous session; a bad token is rejected outright.
func (h *Handlers) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.Anonymous
		if raw := strings.TrimSpace(c.GetHeader("Authorization")); raw != "" {
			var err error
			s, err = session.FromToken(raw, h.now())
			if err != nil {
				h.fail(c, err)
				return
			}
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessionOf(c).Require(); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "kind": apperrors.KindAuth})
			return
		}
		c.Next()
	}
}

func sessionOf(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.Anonymous
}
