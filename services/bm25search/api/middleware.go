package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

const requestIDContextKey = "bm25search.request_id"

// RequestIDMiddleware assigns or propagates a request id and stashes it
// in gin's context so handlers and writeEngineError can attach it to
// their log lines.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := getOrCreateRequestID(c)
		c.Set(requestIDContextKey, id)
		c.Next()
	}
}

func requestLogger(c *gin.Context, base *slog.Logger) *slog.Logger {
	if id, ok := c.Get(requestIDContextKey); ok {
		if s, ok := id.(string); ok {
			return base.With(slog.String("request_id", s))
		}
	}
	return base
}
