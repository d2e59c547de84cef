package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veloapp/pushops-backend/internal/services"
)

// MetricsHandler handles metrics-related HTTP requests
type MetricsHandler struct {
	metricsService *services.MetricsService
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metricsService *services.MetricsService) *MetricsHandler {
	return &MetricsHandler{
		metricsService: metricsService,
	}
}

// GetSummary handles GET /metrics/:scope/:id
func (h *MetricsHandler) GetSummary(c *gin.Context) {
	summary, err := h.metricsService.Summarize(c, c.Param("scope"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetGlobalSummary handles GET /metrics/global
func (h *MetricsHandler) GetGlobalSummary(c *gin.Context) {
	summary, err := h.metricsService.GlobalSummary(c)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
