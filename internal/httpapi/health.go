package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-circulation/internal/logger"
	"library-circulation/library"
)

type HealthHandler struct {
	log     *logger.Logger
	db      Pinger
	clock   library.Clock
	version string
}

func NewHealthHandler(log *logger.Logger, db Pinger, clock library.Clock, version string) *HealthHandler {
	return &HealthHandler{log: log.With("handler", "HealthHandler"), db: db, clock: clock, version: version}
}

// GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	RespondOK(c, gin.H{
		"service":   "library-circulation",
		"version":   h.version,
		"status":    "UP",
		"timestamp": h.clock.Now().UTC().Format(time.RFC3339),
	})
}

// GET /api/health/database
func (h *HealthHandler) Database(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "database": "unreachable"})
		return
	}
	RespondOK(c, gin.H{"status": "UP", "database": "sqlite"})
}
