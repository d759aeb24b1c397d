// Package handlers implements the HTTP API endpoints over the graph
// client facade.
package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/engram"
)

// Build information, set at build time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const readinessTimeout = 5 * time.Second

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	reader engram.GraphReader
}

// NewHealthHandler creates a health handler. The reader may be nil; the
// readiness check then reports not ready.
func NewHealthHandler(reader engram.GraphReader) *HealthHandler {
	return &HealthHandler{reader: reader}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "engram",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// LivenessCheck handles GET /live.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"service":   "engram",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessCheck handles GET /ready. It exercises the read path end to
// end: a one-episode fetch touches the driver without mutating anything.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	checks := gin.H{}
	ready := true

	if h.reader == nil {
		checks["graph"] = gin.H{
			"status": "unhealthy",
			"error":  "graph client not initialized",
		}
		ready = false
	} else {
		start := time.Now()
		_, err := h.reader.GetEpisodes(ctx, "", 1)
		took := time.Since(start)

		switch {
		case err != nil && ctx.Err() != nil:
			checks["graph"] = gin.H{
				"status":   "unhealthy",
				"error":    "graph query timeout",
				"duration": took.String(),
			}
			ready = false
		case err != nil:
			checks["graph"] = gin.H{
				"status":   "unhealthy",
				"error":    err.Error(),
				"duration": took.String(),
			}
			ready = false
		default:
			checks["graph"] = gin.H{
				"status":   "healthy",
				"duration": took.String(),
			}
		}
	}

	response := gin.H{
		"status":    "ready",
		"service":   "engram",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}
	if !ready {
		response["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}
