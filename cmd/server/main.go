package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/value-compass/cmd/server/docs"
	"github.com/ZanzyTHEbar/value-compass/internal/cache"
	"github.com/ZanzyTHEbar/value-compass/internal/catalog"
	"github.com/ZanzyTHEbar/value-compass/internal/compass"
	"github.com/ZanzyTHEbar/value-compass/internal/config"
	"github.com/ZanzyTHEbar/value-compass/internal/database"
	apperrors "github.com/ZanzyTHEbar/value-compass/internal/errors"
	"github.com/ZanzyTHEbar/value-compass/internal/middleware"
	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/value-compass/internal/privacy"
	"github.com/ZanzyTHEbar/value-compass/internal/ratelimit"
	"github.com/ZanzyTHEbar/value-compass/internal/security"
)

const version = "1.0.0"

const shutdownTimeout = 30 * time.Second

// @title Value Compass API
// @version 1.0
// @description Scores political value questionnaires and compares the resulting portraits with political actors.
// @BasePath /
func main() {
	cfg, err := config.Load(os.Getenv("COMPASS_CONFIG"))
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger.Logger)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *monitoring.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	go app.privacy.Run(ctx, cfg.CleanupInterval)

	docs.SwaggerInfo.Version = version

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		slog.Info("Shutting down server...", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	slog.Info("Server exited")
	return nil
}

// application holds the long lived dependencies of the HTTP server.
type application struct {
	cfg     *config.Config
	db      *database.DB
	service *compass.Service
	cache   *cache.Cache
	redis   *ratelimit.RedisClient
	limiter *ratelimit.RateLimiter
	guard   *security.SecurityMiddleware
	metrics *monitoring.Metrics
	logger  *monitoring.Logger

	compression *middleware.CompressionMiddleware
	privacy     *privacy.Service
}

func newApplication(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (*application, error) {
	db, err := database.NewDB(ctx, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	metrics := monitoring.NewMetrics()
	responses := cache.NewCache(cfg.CacheSize, cfg.CacheTTL)

	repo := database.NewRepository(db)
	service := compass.NewService(repo, compass.Options{
		RankingWorkers: cfg.RankingWorkers,
		Cache:          responses,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err := service.Seed(ctx, cat); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	// Redis is optional; without it the limiter keeps its state in memory.
	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory rate limiting", "addr", cfg.RedisAddr, "error", err)
	}

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		RequestsPerMinute:  cfg.RateLimitPerMinute,
		Burst:              cfg.RateLimitBurst,
		SubmissionsPerHour: cfg.SubmissionsPerHour,
	}, metrics)

	guard := security.NewSecurityMiddleware(security.SecurityConfig{
		RequestTimeout: cfg.RequestTimeout,
		EnableHSTS:     cfg.EnableHSTS,
	})

	compression := middleware.DefaultCompressionConfig()
	compression.MinSize = cfg.CompressionMinSize

	return &application{
		cfg:     cfg,
		db:      db,
		service: service,
		cache:   responses,
		redis:   redisClient,
		limiter: limiter,
		guard:   guard,
		metrics: metrics,
		logger:  logger,

		compression: middleware.NewCompressionMiddleware(compression),
		privacy:     privacy.NewService(repo, cfg.AnswerRetention, logger),
	}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError("failed to load catalog "+path, err)
	}
	return cat, nil
}

// Close releases the limiter, redis and database.
func (a *application) Close() {
	a.limiter.Close()
	if a.redis.IsEnabled() {
		apperrors.SafeClose(a.redis, "redis")
	}
	apperrors.SafeClose(a.db, "database")
}
