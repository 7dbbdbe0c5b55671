// Package api is the HTTP facade over engine.Engine: a Handlers type
// holding the engine, one method per operation, ErrorResponse{Error,
// Code} on failure, request-scoped logging keyed by a request id.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/bm25search/services/bm25search/engine"
)

// Handlers holds the engine instance every route dispatches against.
type Handlers struct {
	Engine *engine.Engine
	Logger *slog.Logger
}

// NewHandlers constructs a Handlers. logger may be nil, in which case
// slog.Default() is used.
func NewHandlers(e *engine.Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{Engine: e, Logger: logger}
}

// ErrorResponse is the JSON body returned on any handler failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const requestIDHeader = "X-Request-Id"

// getOrCreateRequestID returns the caller-supplied request id, or mints a
// fresh one and echoes it back via the response header so callers can
// correlate logs without having sent one themselves.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader(requestIDHeader); id != "" {
		return id
	}
	id := uuid.NewString()
	c.Header(requestIDHeader, id)
	return id
}

// writeEngineError maps an engine error kind to an HTTP status and writes
// the JSON error body.
func writeEngineError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, engine.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, engine.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, engine.ErrTransient):
		status, code = http.StatusServiceUnavailable, "TRANSIENT"
	case errors.Is(err, engine.ErrBackend):
		status, code = http.StatusInternalServerError, "BACKEND"
	}
	requestLogger(c, logger).Error("request failed", slog.String("code", code), slog.String("error", err.Error()))
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
