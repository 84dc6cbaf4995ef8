package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verbamind/verbamind/internal/services"
	"github.com/verbamind/verbamind/pkg/database"
)

type HealthHandler struct {
	db    *database.DB
	cache *services.CacheService
	hub   *services.LiveHub
}

func NewHealthHandler(db *database.DB, cache *services.CacheService, hub *services.LiveHub) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, hub: hub}
}

// GetHealth returns basic health status - always returns 200 if server is running
// This is used for basic liveness probes
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "verbamind",
		"time":    time.Now().UTC(),
	})
}

// GetReady checks the backing stores and reports readiness.
func (h *HealthHandler) GetReady(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	if sqlDB, err := h.db.DB.DB(); err != nil || sqlDB.Ping() != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Client().Ping(c.Request.Context()).Err(); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.hub != nil {
		checks["ws_clients"] = h.hub.ClientCount()
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": checks, "healthy": healthy})
}
