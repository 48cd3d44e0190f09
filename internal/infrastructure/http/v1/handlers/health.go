package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"crmapi/internal/infrastructure/cache"
	"crmapi/internal/infrastructure/storage/postgres"
)

// Database is what the health checks need from the pool.
type Database interface {
	Ready(ctx context.Context) error
	Stats() postgres.PoolStats
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      Database
	fields  *cache.FieldCache
	version string
}

// NewHealthHandler creates a new health handler. fields may be nil when the
// registry cache is disabled.
func NewHealthHandler(db Database, fields *cache.FieldCache, version string) *HealthHandler {
	return &HealthHandler{db: db, fields: fields, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":      postgres.ApplicationName,
		"version":  h.version,
		"database": h.db.Stats(),
	}
	if h.fields != nil {
		body["custom_field_cache"] = h.fields.GetStats()
	}
	c.JSON(http.StatusOK, body)
}
