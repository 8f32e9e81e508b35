package main

import (
	"alcyxob/challenge-admin/internal/api"
	"alcyxob/challenge-admin/internal/config"
	"alcyxob/challenge-admin/internal/logging"
	"alcyxob/challenge-admin/internal/repository/mongo"
	"alcyxob/challenge-admin/internal/service"
	"alcyxob/challenge-admin/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Challenge Admin API
// @version 1.0
// @description Admin dashboard API for challenge cohorts, participants, meal programs and meal selections.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Challenge Admin Server...",
		zap.String("address", cfg.Server.Address),
		zap.String("database", cfg.Database.Name))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("Could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		logger.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("Database connection established.")

	// --- Ensure Indexes ---
	// The active-cohort and active-enrollment constraints live in indexes,
	// so these must exist before serving writes.
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), time.Minute)
	mongo.EnsureIndexes(indexCtx, appDB, logger)
	cancelIndex()

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.StorageEnabled() {
		s3Ctx, cancelS3 := context.WithTimeout(context.Background(), 30*time.Second)
		fileStorage, err = storage.NewS3Storage(s3Ctx, cfg.S3, logger)
		cancelS3()
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
	} else {
		logger.Warn("S3 settings missing, meal image uploads are disabled")
		fileStorage = storage.NewDisabledStorage()
	}

	// --- Initialize Repositories ---
	profileRepo := mongo.NewMongoProfileRepository(appDB)
	cohortRepo := mongo.NewMongoCohortRepository(appDB)
	programRepo := mongo.NewMongoMealProgramRepository(appDB)
	optionRepo := mongo.NewMongoMealOptionRepository(appDB)
	enrollmentRepo := mongo.NewMongoEnrollmentRepository(appDB)
	selectionRepo := mongo.NewMongoMealSelectionRepository(appDB)
	telemetryRepo := mongo.NewMongoTelemetryRepository(appDB)
	tokenRepo := mongo.NewMongoTokenRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(profileRepo, tokenRepo, cfg.JWT.Secret, cfg.JWT.Expiration, logger)
	accessGate := service.NewAccessGate(profileRepo, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, cohortRepo, profileRepo, logger)
	cohortService := service.NewCohortService(cohortRepo, programRepo, enrollmentRepo, selectionRepo, telemetryRepo,
		cfg.Schedule.DefaultDurationWeeks, logger)
	programService := service.NewProgramService(programRepo, optionRepo, cohortRepo, fileStorage, cfg.S3.PresignExpiry, logger)
	selectionService := service.NewSelectionService(selectionRepo, cohortRepo, optionRepo, enrollmentRepo, profileRepo, logger)
	participantService := service.NewParticipantService(profileRepo, cohortRepo, enrollmentRepo, selectionRepo, optionRepo,
		telemetryRepo, enrollmentService, cfg.Auth.DefaultPassword, logger)

	// --- Initialize Gin Engine ---
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	api.SetupRoutes(router, api.Services{
		Auth:         authService,
		Access:       accessGate,
		Cohorts:      cohortService,
		Programs:     programService,
		Participants: participantService,
		Enrollments:  enrollmentService,
		Selections:   selectionService,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting.")
}
