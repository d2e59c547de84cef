package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veloapp/pushops-backend/internal/services"
)

// respondError maps service error types onto HTTP statuses: bad input is
// 400, lifecycle conflicts are 409, unreachable dependencies are 502.
func respondError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
