// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/api/handlers"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/api/middleware"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/config"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/cron"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/db"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/email"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/notification"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/seed"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/service"
	"github.com/Marga-Ghale/sticky-desk-backend/internal/socket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Storage: PostgreSQL or in-memory
	// ============================================
	var (
		pg    *db.PostgresDB
		repos *repository.Repositories
		caps  service.Capabilities
	)
	if cfg.UseDatabase() {
		if cfg.AutoMigrate {
			log.Println("🔄 Running database migrations...")
			if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				log.Fatalf("❌ Migration failed: %v", err)
			}
			log.Println("✅ Database migrations completed")
		}

		var err error
		pg, err = db.NewPostgresDB(cfg.DatabaseURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
		if err != nil {
			log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
		}
		defer pg.Close()

		version, err := db.SchemaVersion(cfg.DatabaseURL, cfg.MigrationsPath)
		if err != nil {
			log.Fatalf("❌ Failed to read schema version: %v", err)
		}
		caps = service.CapabilitiesForVersion(version)
		log.Printf("📐 Schema version %d (member requests: %v)", version, caps.MemberRequests)

		repos = repository.NewRepositories(pg.Pool)
	} else {
		log.Println("⚠️  DATABASE_URL not set, using in-memory storage")
		repos = repository.NewInMemoryRepositories()
		caps = service.LatestCapabilities()
	}
	log.Println("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var (
		redisDB     *db.RedisDB
		memberCache service.MemberCache
	)
	if cfg.RedisURL != "" {
		var err error
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			memberCache = db.NewMemberCache(redisDB)
			log.Println("⚡ Redis member cache enabled")
		}
	}

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	emailTransport := newEmailTransport(cfg)
	var transport email.Transport
	if emailTransport != nil {
		transport = emailTransport
	}
	emailSvc := email.NewService(transport, cfg.FrontendURL)

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)
	log.Println("🔌 WebSocket hub initialized")

	// ============================================
	// Initialize Notification Service
	// ============================================
	notificationSvc := notification.NewService(repos.NotificationRepo, repos.UserRepo)
	notificationSvc.SetPusher(broadcaster)
	notificationSvc.SetEmailService(emailSvc)

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:       cfg,
		Repos:        repos,
		Notifier:     notificationSvc,
		Broadcaster:  broadcaster,
		MemberCache:  memberCache,
		Capabilities: caps,
	})
	hub.SetMembershipChecker(services.Member)
	log.Println("✨ All services initialized")

	wsHandler := socket.NewHandler(hub, services.Auth.ValidateToken, cfg.AllowedOrigins)

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.SeedData && !cfg.IsProduction() {
		if err := seed.SeedData(context.Background(), repos); err != nil {
			log.Printf("⚠️ Seeding failed: %v", err)
		}
	}

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(repos.UserRepo, repos.NotificationRepo)
	if err := cronScheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron scheduler: %v", err)
	}

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	health := func() map[string]interface{} {
		status := map[string]interface{}{
			"database":   "memory",
			"cache":      "disabled",
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      "disabled",
		}
		if pg != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			status["database"] = "connected"
			if err := pg.Ping(ctx); err != nil {
				status["database"] = "unreachable"
			}
		}
		if redisDB != nil {
			status["cache"] = "redis"
		}
		if emailTransport != nil {
			status["email"] = emailTransport.State()
		}
		return status
	}

	h := handlers.NewHandlers(services, health)

	api := r.Group("/api")
	handlers.RegisterRoutes(api, h,
		middleware.AuthMiddleware(services.Auth),
		middleware.TrackActivity(services.User),
	)
	// The websocket authenticates itself from the query string.
	api.GET("/ws", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// ============================================
	// Graceful shutdown
	// ============================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	hub.Stop()
	cronScheduler.Stop()
	notificationSvc.Wait()

	log.Println("Server exited")
}

// newEmailTransport builds the configured provider wrapped in a circuit
// breaker, or returns nil when email is disabled.
func newEmailTransport(cfg *config.Config) *email.BreakerTransport {
	switch cfg.EmailProvider {
	case "smtp":
		if cfg.SMTPHost == "" {
			log.Println("⚠️  EMAIL_PROVIDER=smtp but SMTP_HOST not set, email disabled")
			return nil
		}
		log.Println("📧 Email via SMTP")
		return email.NewBreakerTransport("smtp", email.NewSMTPTransport(&email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
			UseTLS:   cfg.SMTPUseTLS,
		}))
	case "sendgrid":
		sg, err := email.NewSendGridTransport(&email.SendGridConfig{
			Key:      cfg.SendGridAPIKey,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		})
		if err != nil {
			log.Printf("⚠️  SendGrid disabled: %v", err)
			return nil
		}
		log.Println("📧 Email via SendGrid")
		return email.NewBreakerTransport("sendgrid", sg)
	default:
		log.Println("⚠️  Email not configured (EMAIL_PROVIDER not set)")
		return nil
	}
}
