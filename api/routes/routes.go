package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veloapp/pushops-backend/internal/config"
	"github.com/veloapp/pushops-backend/internal/handlers"
	"github.com/veloapp/pushops-backend/internal/middleware"
)

// HandlerDependencies collects the handlers the router wires up.
type HandlerDependencies struct {
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	CampaignHandler     *handlers.CampaignHandler
	TriggerHandler      *handlers.TriggerHandler
	NotificationHandler *handlers.NotificationHandler
	MetricsHandler      *handlers.MetricsHandler
	CronHandler         *handlers.CronHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
		}

		// Client-facing endpoints, authenticated by the app itself.
		public.POST("/devices/register", deps.UserHandler.RegisterDevice)

		// Delivery gateway status callback.
		public.POST("/notifications/callback", deps.NotificationHandler.HandleGatewayCallback)

		// External scheduler entrypoint, authenticated by shared secret.
		public.POST("/cron/run", deps.CronHandler.RunCycle)
	}

	// Protected dashboard routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		auth := protected.Group("/auth")
		{
			auth.POST("/register", deps.AuthHandler.Register)
		}

		users := protected.Group("/users")
		{
			users.GET("", deps.UserHandler.GetUsers)
			users.GET("/count", deps.UserHandler.GetUserCount)
			users.GET("/:id", deps.UserHandler.GetUserByID)
			users.PUT("/:id/push-enabled", deps.UserHandler.SetPushEnabled)
		}

		campaigns := protected.Group("/campaigns")
		{
			campaigns.GET("", deps.CampaignHandler.GetCampaigns)
			campaigns.GET("/:id", deps.CampaignHandler.GetCampaignByID)
			campaigns.POST("", deps.CampaignHandler.CreateCampaign)
			campaigns.PUT("/:id", deps.CampaignHandler.UpdateCampaign)
			campaigns.POST("/:id/execute", deps.CampaignHandler.ExecuteCampaign)
			campaigns.POST("/:id/cancel", deps.CampaignHandler.CancelCampaign)
			campaigns.POST("/preview-audience", deps.CampaignHandler.PreviewAudience)
		}

		triggers := protected.Group("/triggers")
		{
			triggers.GET("", deps.TriggerHandler.GetTriggers)
			triggers.GET("/:key", deps.TriggerHandler.GetTriggerByKey)
			triggers.PUT("/:key/settings", deps.TriggerHandler.UpdateTriggerSettings)
			triggers.PUT("/:key/active", deps.TriggerHandler.SetTriggerActive)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("/count", deps.NotificationHandler.GetNotificationCount)
			notifications.GET("/:id", deps.NotificationHandler.GetNotificationByID)
			notifications.GET("/campaign/:id", deps.NotificationHandler.GetNotificationsByCampaignID)
			notifications.GET("/trigger/:key", deps.NotificationHandler.GetNotificationsByTriggerKey)
			notifications.GET("/status/:status", deps.NotificationHandler.GetNotificationsByStatus)
		}

		metrics := protected.Group("/metrics")
		{
			metrics.GET("/global", deps.MetricsHandler.GetGlobalSummary)
			metrics.GET("/:scope/:id", deps.MetricsHandler.GetSummary)
		}

		cron := protected.Group("/cron")
		{
			cron.GET("/health", deps.CronHandler.GetHealthHistory)
		}
	}

	return router
}
