package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler handles notification-log HTTP requests and the gateway
// status callback.
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GetNotificationByID handles GET /notifications/:id
func (h *NotificationHandler) GetNotificationByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	notification, err := h.notificationService.GetByID(c, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, notification)
}

// GetNotificationsByCampaignID handles GET /notifications/campaign/:id
func (h *NotificationHandler) GetNotificationsByCampaignID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	notifications, err := h.notificationService.ListByCampaign(c, id, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// GetNotificationsByTriggerKey handles GET /notifications/trigger/:key
func (h *NotificationHandler) GetNotificationsByTriggerKey(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	notifications, err := h.notificationService.ListByTrigger(c, c.Param("key"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// GetNotificationsByStatus handles GET /notifications/status/:status
func (h *NotificationHandler) GetNotificationsByStatus(c *gin.Context) {
	status := models.NotificationStatus(c.Param("status"))

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	notifications, err := h.notificationService.ListByStatus(c, status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// GetNotificationCount handles GET /notifications/count
func (h *NotificationHandler) GetNotificationCount(c *gin.Context) {
	count, err := h.notificationService.Count(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// HandleGatewayCallback handles POST /notifications/callback. The delivery
// gateway posts asynchronous status events here.
func (h *NotificationHandler) HandleGatewayCallback(c *gin.Context) {
	var request struct {
		DeliveryID string     `json:"deliveryId" binding:"required"`
		Event      string     `json:"event" binding:"required"`
		Timestamp  *time.Time `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at := time.Now()
	if request.Timestamp != nil {
		at = *request.Timestamp
	}

	entry, err := h.notificationService.HandleGatewayEvent(c, request.DeliveryID, request.Event, at)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
