package handlers

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/veloapp/pushops-backend/internal/config"
	"github.com/veloapp/pushops-backend/internal/services"
)

// CronHandler handles the scheduler entrypoint and the health dashboard.
type CronHandler struct {
	cronService *services.CronService
	config      *config.Config
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(cronService *services.CronService, cfg *config.Config) *CronHandler {
	return &CronHandler{
		cronService: cronService,
		config:      cfg,
	}
}

// RunCycle handles POST /cron/run. The external scheduler authenticates with
// a shared secret instead of an operator JWT.
func (h *CronHandler) RunCycle(c *gin.Context) {
	secret := c.Query("secret")
	if h.config.Cron.Secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.config.Cron.Secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid cron secret"})
		return
	}

	record, err := h.cronService.RunCycle(c)
	if err != nil {
		// The cycle itself ran; only persisting its record failed.
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "record": record})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetHealthHistory handles GET /cron/health
func (h *CronHandler) GetHealthHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, err := h.cronService.RecentHealth(c, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get health history"})
		return
	}

	c.JSON(http.StatusOK, records)
}
