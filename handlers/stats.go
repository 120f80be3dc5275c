package handlers

import (
	"net/http"

	"homehub/services/stats"
	"homehub/utils"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves dashboard counters and the health probe.
type StatsHandler struct {
	Stats stats.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc stats.StatsService) *StatsHandler {
	return &StatsHandler{Stats: svc}
}

// PublicStatsHandler handles GET /api/stats.
func (h *StatsHandler) PublicStatsHandler(c *gin.Context) {
	s, err := h.Stats.Public(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// AdminStatsHandler handles GET /api/admin/stats.
func (h *StatsHandler) AdminStatsHandler(c *gin.Context) {
	s, err := h.Stats.Admin(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// HealthHandler handles GET /health with the last background probe of
// Mongo and Redis.
func HealthHandler(c *gin.Context) {
	health := utils.GetHealthStatus()
	status := http.StatusOK
	if !health.Mongo {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
