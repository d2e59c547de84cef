package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veloapp/pushops-backend/internal/services"
)

// TriggerHandler handles trigger-related HTTP requests
type TriggerHandler struct {
	triggerService *services.TriggerService
}

// NewTriggerHandler creates a new TriggerHandler
func NewTriggerHandler(triggerService *services.TriggerService) *TriggerHandler {
	return &TriggerHandler{
		triggerService: triggerService,
	}
}

// GetTriggers handles GET /triggers
func (h *TriggerHandler) GetTriggers(c *gin.Context) {
	triggers, err := h.triggerService.List(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get triggers"})
		return
	}

	c.JSON(http.StatusOK, triggers)
}

// GetTriggerByKey handles GET /triggers/:key
func (h *TriggerHandler) GetTriggerByKey(c *gin.Context) {
	trigger, err := h.triggerService.GetByKey(c, c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trigger not found"})
		return
	}

	c.JSON(http.StatusOK, trigger)
}

// UpdateTriggerSettings handles PUT /triggers/:key/settings
func (h *TriggerHandler) UpdateTriggerSettings(c *gin.Context) {
	var request map[string]interface{}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trigger, err := h.triggerService.UpdateSettings(c, c.Param("key"), request)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trigger)
}

// SetTriggerActive handles PUT /triggers/:key/active
func (h *TriggerHandler) SetTriggerActive(c *gin.Context) {
	var request struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.triggerService.SetActive(c, c.Param("key"), *request.Active); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "active": *request.Active})
}
