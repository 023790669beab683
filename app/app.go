// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"vidtube-api/config"
	"vidtube-api/db"
	"vidtube-api/handler"
	"vidtube-api/logger"
	"vidtube-api/repository"
	"vidtube-api/router"
	"vidtube-api/service"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// App holds the long-lived resources of a running server.
type App struct {
	DB     *sql.DB
	Redis  *redis.Client
	Router http.Handler
}

// New connects to the backing stores, applies migrations and wires all layers.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	database, err := db.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	var profileCache service.ProfileCache = service.NoopProfileCache{}
	redisClient, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, channel profiles will not be cached")
	} else {
		profileCache = service.NewRedisProfileCache(redisClient, cfg.Cache.ProfileTTL)
	}

	s3Client, err := service.NewS3Client(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, err
	}
	storage := service.NewS3MediaStorage(s3Client, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)

	// Repositories
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	subscriptionRepo := repository.NewSubscriptionRepository(database)
	videoRepo := repository.NewVideoRepository(database)

	// Services
	tokens := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		AccessTTL:     cfg.JWT.AccessExpiry,
		RefreshSecret: cfg.JWT.RefreshSecret,
		RefreshTTL:    cfg.JWT.RefreshExpiry,
	})
	authService := service.NewAuthService(userRepo, tokenRepo, tokens, service.NewPasswordHasher(bcrypt.DefaultCost), storage)
	aggregator := service.NewAggregator(userRepo, subscriptionRepo, videoRepo, profileCache)

	// Handlers
	loginLimiter, err := handler.NewLoginRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst, cfg.RateLimit.CacheSize)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("invalid rate limit settings: %w", err)
	}

	r := router.NewRouter(
		handler.NewUserHandler(authService),
		handler.NewChannelHandler(aggregator),
		handler.NewAuthGate(authService),
		loginLimiter,
	)

	return &App{DB: database, Redis: redisClient, Router: r}, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	a.DB.Close()
}

func Run() {
	logger.Init()
	if err := config.LoadConfig("."); err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	cfg := config.AppConfig
	logger.SetLevel(cfg.Log.Level)
	logger.Log.Info("Configuration loaded successfully")

	application, err := New(context.Background(), cfg)
	if err != nil {
		logger.Log.Fatalf("Error initializing application: %v", err)
	}
	defer application.Close()

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: application.Router,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.Log.Info("Server exited properly")
}
