package main

import (
	"context"
	"net/http"
	"time"
	"tripsplit-backend/config"
	"tripsplit-backend/database"
	"tripsplit-backend/handlers"
	"tripsplit-backend/middleware"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	config.Load()
	cfg := config.AppConfig
	utils.InitLogger(cfg.AppEnv, cfg.LogLevel)
	utils.RegisterValidators()

	// Connect to database
	database.Connect(cfg.DatabaseURL)

	// Connect to Redis (optional, won't crash if unavailable)
	database.ConnectRedis(cfg.RedisURL)

	verifier, err := middleware.NewFirebaseVerifier(context.Background(), cfg.FirebaseProjectID, cfg.FirebaseCredPath)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialise Firebase auth")
	}

	notifier := services.GetNotificationService()
	handlers.Init(database.DB, database.Redis, notifier, cfg)

	reminders := &services.ReminderJob{
		DB:       database.DB,
		Notifier: notifier,
		MinAge:   time.Duration(cfg.ReminderMinAgeDays) * 24 * time.Hour,
	}
	scheduler, err := services.StartCronJobs(reminders, cfg.ReminderCron)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to start cron jobs")
	}
	defer scheduler.Stop()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.AppName,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired(verifier, database.DB, database.Redis))
	{
		// User
		api.GET("/users/me", handlers.GetProfile)
		api.PUT("/users/me", handlers.UpdateProfile)
		api.POST("/users/search", handlers.SearchUsers)

		// Trips
		api.POST("/trips", handlers.CreateTrip)
		api.GET("/trips", handlers.GetTrips)
		api.GET("/trips/:id", handlers.GetTrip)
		api.PUT("/trips/:id", handlers.UpdateTrip)
		api.DELETE("/trips/:id", handlers.DeleteTrip)

		// Members
		api.GET("/trips/:id/members", handlers.GetMembers)
		api.POST("/trips/:id/members", handlers.AddMember)
		api.PUT("/trips/:id/members/:uid/role", handlers.UpdateMemberRole)
		api.DELETE("/trips/:id/members/:uid", handlers.RemoveMember)
		api.PUT("/trips/:id/rsvp", handlers.UpdateRSVP)

		// Invitations
		api.POST("/trips/:id/invitations", handlers.InviteToTrip)
		api.POST("/invitations/accept", handlers.AcceptInvitation)

		// Spends
		api.POST("/trips/:id/spends", handlers.CreateSpend)
		api.GET("/trips/:id/spends", handlers.GetTripSpends)
		api.GET("/spends/:id", handlers.GetSpend)
		api.PUT("/spends/:id", handlers.UpdateSpend)
		api.DELETE("/spends/:id", handlers.DeleteSpend)
		api.POST("/spends/:id/close", handlers.CloseSpend)
		api.POST("/spends/:id/reopen", handlers.ReopenSpend)
		api.POST("/spends/:id/tags/:tagId", handlers.TagSpend)
		api.DELETE("/spends/:id/tags/:tagId", handlers.UntagSpend)

		// Tags
		api.POST("/trips/:id/tags", handlers.CreateTag)
		api.GET("/trips/:id/tags", handlers.GetTags)

		// Balances
		api.GET("/trips/:id/balances", handlers.GetTripBalances)
		api.GET("/trips/:id/ledger", handlers.GetTripLedger)
		api.GET("/balances", handlers.GetOverallBalances)

		// Choices
		api.POST("/trips/:id/choices", handlers.CreateChoice)
		api.GET("/trips/:id/choices", handlers.GetChoices)
		api.GET("/choices/:id", handlers.GetChoice)
		api.PUT("/choices/:id/responses", handlers.RespondToChoice)
		api.POST("/choices/:id/close", handlers.CloseChoice)

		// Checklists
		api.POST("/checklist-templates", handlers.CreateChecklistTemplate)
		api.GET("/checklist-templates", handlers.GetChecklistTemplates)
		api.POST("/trips/:id/checklists", handlers.CreateChecklist)
		api.GET("/trips/:id/checklists", handlers.GetChecklists)
		api.PUT("/checklist-items/:id/toggle", handlers.ToggleChecklistItem)

		// Activity
		api.GET("/activity", handlers.GetActivity)
		api.GET("/trips/:id/activity", handlers.GetTripActivity)
	}

	// Admin mode is per request: the key is checked on every call.
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminRequired(cfg.AdminKeyHash))
	{
		admin.GET("/stats", handlers.GetAdminStats)
	}

	// Start server
	addr := "0.0.0.0:" + cfg.Port
	utils.Logger.WithField("addr", addr).Infof("%s server starting", cfg.AppName)
	if err := r.Run(addr); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to start server")
	}
}
