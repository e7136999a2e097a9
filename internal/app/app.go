package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"natours_backend/database"
	"natours_backend/internal/auth"
	"natours_backend/internal/config"
	"natours_backend/internal/email"
	"natours_backend/internal/handlers"
	"natours_backend/internal/imageprocessor"
	"natours_backend/internal/logger"
	"natours_backend/internal/middleware"
	"natours_backend/internal/models"
	"natours_backend/internal/payment"
	"natours_backend/internal/routes"
	"natours_backend/internal/services"
	"natours_backend/internal/storage"
	"natours_backend/internal/validator"
	"natours_backend/internal/workers"
	"natours_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server - собранное приложение: роутер и то, что живет рядом с ним
type Server struct {
	Engine      *gin.Engine
	Services    *services.ServiceContainer
	Repos       *services.Repositories
	RateLimiter *middleware.RateLimiter
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(gormDB); err != nil {
			logger.Fatal("Migration failed", "error", err)
		}
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		// без админа сервер не запускаем: проблема с БД
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	srv, err := SetupRouter(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	workers.NewResetTokenSweeper(gormDB, srv.Repos.Users, cfg.Workers.ResetTokenSweepInterval).Start(ctx)
	go srv.RateLimiter.Run(ctx, cfg.Security.RateWindow)

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           srv.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", cfg.Address(), "env", cfg.Server.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
}

// SetupRouter собирает сервисы, хэндлеры и роутер. Используется в Run и в интеграционных тестах.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*Server, error) {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	mailer, err := newMailer(cfg)
	if err != nil {
		return nil, err
	}

	customValidator := validator.New()
	repos := services.NewRepositories()

	serviceContainer := services.NewServiceContainer(services.Deps{
		Repos:     repos,
		Validator: customValidator,
		Tokens:    auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn),
		Mailer:    mailer,
		Gateway: payment.NewGateway(payment.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Currency:      cfg.Stripe.Currency,
		}),
		Storage:   storageInstance,
		Processor: imageprocessor.NewProcessor(cfg.Upload.ImageQuality),
		BaseURL:   cfg.Server.BaseURL,
	})

	appHandlers := handlers.NewAppHandlers(serviceContainer, customValidator, storageInstance, handlers.CookieConfig{
		TTL:    time.Duration(cfg.JWT.CookieExpiresDays) * 24 * time.Hour,
		Secure: cfg.IsProduction(),
	})
	guard := middleware.NewGuard(serviceContainer.AuthService)
	limiter := middleware.NewRateLimiter(cfg.Security.RateLimit, cfg.Security.RateWindow)

	ginRouter := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, guard, routes.Options{
		RateLimiter:   limiter,
		BodyLimit:     cfg.Security.BodyLimit,
		StaticDir:     cfg.Server.StaticDir,
		EnableSwagger: !cfg.IsProduction(),
	})

	return &Server{
		Engine:      ginRouter,
		Services:    serviceContainer,
		Repos:       repos,
		RateLimiter: limiter,
	}, nil
}

// newMailer - без SMTP хоста письма только логируются
func newMailer(cfg *config.Config) (email.Mailer, error) {
	templates, err := email.NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP host is not set, emails are written to the log")
		return email.NewLogMailer(templates), nil
	}

	mailer, err := email.NewSMTPMailer(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		UseTLS:    cfg.Email.UseTLS,
	}, templates, email.DefaultBreakerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP mailer: %w", err)
	}
	return mailer, nil
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Security.CORSOrigins))
	router.Use(middleware.Compression("/img", "/metrics"))
	router.Use(middleware.DBMiddleware(db))

	router.SetFuncMap(handlers.TemplateFuncs())
	router.LoadHTMLGlob(filepath.Join(cfg.Server.TemplatesDir, "*.html"))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", adminEmail).First(&existing).Error
		if err == nil {
			logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for admin user: %w", err)
		}

		logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}

		admin := models.NewUser()
		admin.Name = "Admin"
		admin.Email = adminEmail
		admin.Role = models.UserRoleAdmin
		admin.PasswordHash = hash
		admin.Normalize()

		if err := tx.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user in database: %w", err)
		}

		logger.Info("Successfully created first admin user", "email", admin.Email)
		return nil
	})
}
