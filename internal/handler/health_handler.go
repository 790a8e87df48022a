package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessProbe reports whether an external dependency is usable.
type ReadinessProbe struct {
	Name      string
	Available func() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	probes []ReadinessProbe
}

// NewHealthHandler creates a new HealthHandler with the given readiness
// probes (renderer and solver binaries).
func NewHealthHandler(probes ...ReadinessProbe) *HealthHandler {
	return &HealthHandler{probes: probes}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The solver probe is advisory: extraction
// degrades without it, so a missing solver reports but does not fail
// readiness. A missing renderer does.
func (h *HealthHandler) Readiness(c *gin.Context) {
	deps := gin.H{}
	ready := true
	for _, p := range h.probes {
		ok := p.Available()
		deps[p.Name] = ok
		if !ok && p.Name == "renderer" {
			ready = false
		}
	}
	status := http.StatusOK
	verdict := "ok"
	if !ready {
		status = http.StatusServiceUnavailable
		verdict = "unavailable"
	}
	c.JSON(status, gin.H{"status": verdict, "dependencies": deps})
}
