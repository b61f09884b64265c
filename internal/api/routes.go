package api

import (
	"fitforge/server/internal/domain" // Needed for RoleMiddleware
	"fitforge/server/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	JWTSecret       string
	AuthService     service.AuthService
	ExerciseService service.ExerciseService
	ProgramService  service.ProgramService
	ProgressService service.ProgressService
	MediaService    service.MediaService
	PremiumService  service.PremiumService
	WebhookParser   WebhookParser
	Logger          *zap.Logger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	registerValidators()

	authHandler := NewAuthHandler(deps.AuthService, deps.Logger)
	exerciseHandler := NewExerciseHandler(deps.ExerciseService, deps.Logger)
	calculatorHandler := NewCalculatorHandler()
	catalogHandler := NewCatalogHandler(deps.AuthService, deps.ProgramService, deps.ProgressService, deps.MediaService, deps.Logger)
	adminHandler := NewAdminHandler(deps.ProgramService, deps.MediaService, deps.PremiumService, deps.Logger)
	premiumHandler := NewPremiumHandler(deps.PremiumService, deps.Logger)
	webhookHandler := NewWebhookHandler(deps.WebhookParser, deps.PremiumService, deps.Logger)

	authMiddleware := AuthMiddleware(deps.JWTSecret)
	optionalAuth := OptionalAuthMiddleware(deps.JWTSecret)

	router.Use(RequestLogger(deps.Logger))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		calculators := apiV1.Group("/calculators")
		{
			calculators.POST("/bmi", calculatorHandler.BMI)
			calculators.POST("/calories", calculatorHandler.Calories)
		}

		// Stripe signs the raw body; no auth middleware here.
		apiV1.POST("/webhooks/stripe", webhookHandler.Stripe)

		apiV1.GET("/exercises", exerciseHandler.ListExercises)
		apiV1.GET("/exercises/:exerciseId", exerciseHandler.GetExercise)
		apiV1.GET("/premium/plans", premiumHandler.ListPlans)

		// Anonymous visitors see the catalog; a token unlocks the caller's premium view.
		catalog := apiV1.Group("/programs")
		catalog.Use(optionalAuth)
		{
			catalog.GET("", catalogHandler.ListPrograms)
			catalog.GET("/:locale/:slug", catalogHandler.GetProgram)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)
		protected.GET("/me/progress/:programId", catalogHandler.GetProgress)

		protected.GET("/sessions/:sessionId", catalogHandler.GetSession)
		protected.POST("/sessions/:sessionId/complete", catalogHandler.CompleteSession)

		premium := protected.Group("/premium")
		{
			premium.GET("/status", premiumHandler.Status)
			premium.POST("/checkout", premiumHandler.StartCheckout)
			premium.POST("/portal", premiumHandler.OpenBillingPortal)
			premium.POST("/cancel", premiumHandler.Cancel)
		}

		// --- Admin Routes ---
		// Authentication comes from 'protected'; the group adds the admin role check.
		admin := protected.Group("/admin")
		admin.Use(RoleMiddleware(domain.RoleAdmin))
		{
			admin.POST("/exercises", exerciseHandler.CreateExercise)
			admin.PUT("/exercises/:exerciseId", exerciseHandler.UpdateExercise)
			admin.DELETE("/exercises/:exerciseId", exerciseHandler.DeleteExercise)

			admin.GET("/programs", adminHandler.ListPrograms)
			admin.POST("/programs", adminHandler.CreateProgram)
			admin.GET("/programs/:programId", adminHandler.GetProgram)
			admin.PUT("/programs/:programId", adminHandler.UpdateProgram)
			admin.DELETE("/programs/:programId", adminHandler.DeleteProgram)
			admin.POST("/programs/:programId/publish", adminHandler.PublishProgram)
			admin.POST("/programs/:programId/weeks", adminHandler.AddWeek)
			admin.POST("/programs/:programId/cover/upload-url", adminHandler.RequestCoverUpload)
			admin.POST("/programs/:programId/cover/confirm", adminHandler.ConfirmCoverUpload)

			admin.PUT("/weeks/:weekId", adminHandler.UpdateWeek)
			admin.DELETE("/weeks/:weekId", adminHandler.DeleteWeek)
			admin.POST("/weeks/:weekId/sessions", adminHandler.AddSession)

			admin.PUT("/sessions/:sessionId", adminHandler.UpdateSession)
			admin.DELETE("/sessions/:sessionId", adminHandler.DeleteSession)

			admin.POST("/plans", adminHandler.UpsertPlan)
		}
	}
}
