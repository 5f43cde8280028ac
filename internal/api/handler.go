package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RichardAwuor/Nyota-KE-sub000/internal/engine"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new API handler.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// writeError maps engine errors onto the HTTP surface. Anything that is not
// a typed engine error is a persistence or internal failure and becomes a
// 500.
func writeError(c *gin.Context, err error) {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusBadRequest
	switch engErr.Kind {
	case engine.KindNotFound:
		status = http.StatusNotFound
	case engine.KindConcurrencyConflict:
		status = http.StatusConflict
	case engine.KindStateConflict:
		if engErr.Code == engine.CodeNotSelectedProvider {
			status = http.StatusForbidden
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": engErr.Code, "message": engErr.Message})
}
