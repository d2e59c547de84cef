package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/veloapp/pushops-backend/api/routes"
	"github.com/veloapp/pushops-backend/internal/config"
	"github.com/veloapp/pushops-backend/internal/handlers"
	"github.com/veloapp/pushops-backend/internal/repositories"
	mongorepo "github.com/veloapp/pushops-backend/internal/repositories/mongodb"
	"github.com/veloapp/pushops-backend/internal/services"
	"github.com/veloapp/pushops-backend/pkg/mongodb"
	"github.com/veloapp/pushops-backend/pkg/pushgateway"
)

func main() {
	// Load .env if present; real deployments rely on the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	var userRepo repositories.UserRepository = mongorepo.NewUserRepository(db)
	var tokenRepo repositories.DeviceTokenRepository = mongorepo.NewDeviceTokenRepository(db)
	var campaignRepo repositories.CampaignRepository = mongorepo.NewCampaignRepository(db)
	var triggerRepo repositories.TriggerRepository = mongorepo.NewTriggerRepository(db)
	var logRepo repositories.NotificationLogRepository = mongorepo.NewNotificationLogRepository(db)
	var healthRepo repositories.CronHealthRepository = mongorepo.NewCronHealthRepository(db)
	var adminRepo repositories.AdminUserRepository = mongorepo.NewAdminUserRepository(db)

	// Delivery gateway
	var gateway pushgateway.Gateway
	if cfg.Push.MockGateway {
		gateway = pushgateway.NewMockGateway()
		log.Println("Using mock push gateway")
	} else {
		gateway = pushgateway.NewHTTPGateway(cfg)
	}

	// Services
	segmentService := services.NewSegmentService(userRepo, tokenRepo)
	campaignService := services.NewCampaignService(campaignRepo, logRepo, tokenRepo, segmentService, gateway)
	triggerService := services.NewTriggerService(triggerRepo, userRepo, tokenRepo, logRepo, gateway)
	notificationService := services.NewNotificationService(logRepo, campaignRepo)
	metricsService := services.NewMetricsService(logRepo)
	cronService := services.NewCronService(triggerRepo, campaignRepo, healthRepo, triggerService, campaignService, cfg)
	authService := services.NewAuthService(adminRepo, cfg)
	userService := services.NewUserService(userRepo, tokenRepo)

	// Make sure the trigger catalog exists before the first cron cycle.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := triggerService.SeedCatalog(seedCtx); err != nil {
		log.Fatalf("Failed to seed trigger catalog: %v", err)
	}
	cancelSeed()

	// Handlers
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:         handlers.NewAuthHandler(authService),
		UserHandler:         handlers.NewUserHandler(userService),
		CampaignHandler:     handlers.NewCampaignHandler(campaignService),
		TriggerHandler:      handlers.NewTriggerHandler(triggerService),
		NotificationHandler: handlers.NewNotificationHandler(notificationService),
		MetricsHandler:      handlers.NewMetricsHandler(metricsService),
		CronHandler:         handlers.NewCronHandler(cronService, cfg),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
