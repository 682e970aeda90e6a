package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jalh2/ulpdsrd-backend/internal/config"
	"github.com/jalh2/ulpdsrd-backend/internal/database"
	"github.com/jalh2/ulpdsrd-backend/internal/handler"
	"github.com/jalh2/ulpdsrd-backend/internal/middleware"
	"github.com/jalh2/ulpdsrd-backend/internal/models"
	"github.com/jalh2/ulpdsrd-backend/internal/repository"
	"github.com/jalh2/ulpdsrd-backend/internal/router"
	"github.com/jalh2/ulpdsrd-backend/internal/scheduler"
	"github.com/jalh2/ulpdsrd-backend/internal/service"
	"github.com/jalh2/ulpdsrd-backend/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.GradeRecord{}, &models.ActivityLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := utils.NewValidator()

	recordRepo := repository.NewRecordRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, redisClient, natsConn, cfg.NATSSubjectBase, cfg.StatsCacheTTL, validate, logger)
	recordService := service.NewRecordService(recordRepo, validate, activityService, logger)
	userService := service.NewUserService(userRepo, validate, activityService, logger)
	authService := service.NewAuthService(userRepo, userService, activityService, validate, cfg.JWTSecret, cfg.JWTExpiry, logger)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	activityService.Start(runCtx)

	sweeper, err := scheduler.NewRetentionSweeper(cfg.LogRetentionCron, cfg.LogRetentionDays, activityService, logger)
	if err != nil {
		log.Fatalf("failed to schedule retention sweep: %v", err)
	}
	sweeper.Start()

	authHandler := handler.NewAuthHandler(authService, logger)
	recordHandler := handler.NewRecordHandler(recordService, cfg.DefaultPageSize, cfg.MaxPageSize, logger)
	userHandler := handler.NewUserHandler(userService, cfg.DefaultPageSize, cfg.MaxPageSize, logger)
	activityHandler := handler.NewActivityHandler(activityService, cfg.DefaultPageSize, cfg.MaxPageSize, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:     authHandler,
		RecordHandler:   recordHandler,
		UserHandler:     userHandler,
		ActivityHandler: activityHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, func() {
		sweeper.Stop()
		activityService.Stop()
	})
}

func waitForShutdown(app *fiber.App, cleanup func()) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	cleanup()
	log.Println("server stopped")
}
