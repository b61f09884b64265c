package main

import (
	"context"
	"errors"
	"fitforge/server/internal/api"
	"fitforge/server/internal/config"
	"fitforge/server/internal/logger"
	"fitforge/server/internal/payment"
	"fitforge/server/internal/repository/mongo"
	"fitforge/server/internal/service"
	"fitforge/server/internal/storage"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title FitForge API
// @version 1.0
// @description Training programs, fitness calculators and premium subscriptions.
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

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zlog.Info("Starting FitForge server...")

	if cfg.JWT.Secret == "" {
		zlog.Fatal("jwt.secret must be set")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		zlog.Fatal("Could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		zlog.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			zlog.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	zlog.Info("Database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
			zlog.Error("Index creation failed", zap.Error(err))
			return
		}
		zlog.Info("Index creation process completed")
	}()

	// --- Initialize Storage ---
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 10*time.Second)
	fileStorage, err := storage.NewS3Storage(storageCtx, cfg.S3, zlog)
	storageCancel()
	if err != nil {
		zlog.Fatal("Failed to initialize S3 storage", zap.Error(err))
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	weekRepo := mongo.NewMongoWeekRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	progressRepo := mongo.NewMongoProgressRepository(appDB)
	mediaRepo := mongo.NewMongoMediaRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	subRepo := mongo.NewMongoSubscriptionRepository(appDB)
	eventRepo := mongo.NewMongoEventRepository(appDB)
	transactor := mongo.NewTransactor(dbClient)

	// --- Payment Provider ---
	stripeProvider := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, zlog)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Auth.AdminEmails, zlog)
	exerciseService := service.NewExerciseService(exerciseRepo, zlog)
	programService := service.NewProgramService(programRepo, weekRepo, sessionRepo, exerciseRepo, progressRepo, mediaRepo, fileStorage, transactor, zlog)
	progressService := service.NewProgressService(progressRepo, sessionRepo, programService, zlog)
	mediaService := service.NewMediaService(mediaRepo, programRepo, fileStorage, zlog)
	premiumService := service.NewPremiumService(userRepo, planRepo, subRepo, eventRepo, transactor, stripeProvider,
		service.BillingURLs{
			SuccessURL:      cfg.Stripe.SuccessURL,
			CancelURL:       cfg.Stripe.CancelURL,
			PortalReturnURL: cfg.Stripe.PortalReturnURL,
		}, zlog)

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Dependencies{
		JWTSecret:       cfg.JWT.Secret,
		AuthService:     authService,
		ExerciseService: exerciseService,
		ProgramService:  programService,
		ProgressService: progressService,
		MediaService:    mediaService,
		PremiumService:  premiumService,
		WebhookParser:   stripeProvider,
		Logger:          zlog,
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
		zlog.Info("Server starting", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exiting")
}
