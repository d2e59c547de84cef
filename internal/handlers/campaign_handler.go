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

// campaignRequest is the shared create/update payload.
type campaignRequest struct {
	Name         string                 `json:"name" binding:"required"`
	Description  string                 `json:"description"`
	CampaignType string                 `json:"campaignType" binding:"required"`
	Title        string                 `json:"title" binding:"required"`
	Body         string                 `json:"body" binding:"required"`
	ImageURL     string                 `json:"imageUrl"`
	Data         map[string]interface{} `json:"data"`
	Filters      models.SegmentFilter   `json:"filters"`
	ScheduledFor *time.Time             `json:"scheduledFor"`
}

func (r campaignRequest) toModel() *models.Campaign {
	return &models.Campaign{
		Name:         r.Name,
		Description:  r.Description,
		CampaignType: r.CampaignType,
		Title:        r.Title,
		Body:         r.Body,
		ImageURL:     r.ImageURL,
		Data:         r.Data,
		Filters:      r.Filters,
		ScheduledFor: r.ScheduledFor,
	}
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignService *services.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
	}
}

// CreateCampaign handles POST /campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var request campaignRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign := request.toModel()
	if userID, ok := c.Get("userID"); ok {
		campaign.CreatedBy, _ = userID.(string)
	}

	if err := h.campaignService.Create(c, campaign); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// GetCampaignByID handles GET /campaigns/:id
func (h *CampaignHandler) GetCampaignByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	campaign, err := h.campaignService.GetByID(c, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// GetCampaigns handles GET /campaigns
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	campaigns, err := h.campaignService.List(c, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get campaigns"})
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// UpdateCampaign handles PUT /campaigns/:id
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	var request campaignRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	campaign, err := h.campaignService.Update(c, id, request.toModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// ExecuteCampaign handles POST /campaigns/:id/execute
func (h *CampaignHandler) ExecuteCampaign(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	result, err := h.campaignService.Execute(c, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelCampaign handles POST /campaigns/:id/cancel
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	if err := h.campaignService.Cancel(c, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// PreviewAudience handles POST /campaigns/preview-audience
func (h *CampaignHandler) PreviewAudience(c *gin.Context) {
	var filter models.SegmentFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resolution, err := h.campaignService.PreviewAudience(c, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolution)
}
