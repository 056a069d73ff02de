package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/aquago/aquago-api/api/swagger"
	"github.com/aquago/aquago-api/internal/handler"
	"github.com/aquago/aquago-api/internal/middleware"
	"github.com/aquago/aquago-api/internal/repository"
	"github.com/aquago/aquago-api/internal/service"
	"github.com/aquago/aquago-api/pkg/cache"
	"github.com/aquago/aquago-api/pkg/config"
	"github.com/aquago/aquago-api/pkg/database"
	"github.com/aquago/aquago-api/pkg/jobs"
	"github.com/aquago/aquago-api/pkg/logger"
	corsmiddleware "github.com/aquago/aquago-api/pkg/middleware/cors"
	"github.com/aquago/aquago-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/aquago/aquago-api/pkg/middleware/requestid"
	"github.com/aquago/aquago-api/pkg/storage"
)

// @title AquaGo API
// @version 1.0.0
// @description Public drinking water points, feedback and hydration tracking
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JWT.Secret == "" {
		logr.Warn("TOKEN_SECRET_KEY is empty, authenticated routes will fail")
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return err
		}
	}

	metricsSvc := service.NewMetricsService()

	checks := map[string]handler.HealthCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else if client != nil {
			defer client.Close()
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			cacheRepo = repository.NewCacheRepository(client, cfg.Cache.Prefix, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		return err
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	pointRepo := repository.NewWaterPointRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	hydrationRepo := repository.NewHydrationRepository(db)

	ratings := service.NewRatingService(pointRepo, cfg.Ratings.RecomputeMode, nil, metricsSvc, logr)
	if cfg.Ratings.RecomputeMode == config.RecomputeOnWrite {
		queue := jobs.NewQueue("rating-recompute", ratings.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Ratings.Workers,
			MaxRetries: cfg.Ratings.Retries,
			RetryDelay: time.Second,
			Logger:     logr,
		})
		// detached so buffered recomputes survive the shutdown signal
		queue.Start(context.WithoutCancel(ctx))
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := queue.Stop(drainCtx); err != nil {
				logr.Warn("rating queue not drained", zap.Error(err))
			}
		}()
		ratings.SetQueue(queue)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	pointSvc := service.NewWaterPointService(pointRepo, ratings, cacheSvc, validate, logr)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, pointRepo, ratings, store, signer, service.FeedbackConfig{
		MaxImageBytes:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:   cfg.Uploads.AllowedMIMEs,
		ImageURLPrefix: cfg.APIPrefix + "/feedback/images/",
	}, metricsSvc, logr)
	hydrationSvc := service.NewHydrationService(hydrationRepo, userRepo, pointRepo, validate, logr, time.UTC)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, cfg.APIPrefix+"/health", cfg.APIPrefix+"/metrics"))

	limiter := ratelimit.New(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.Burst)
	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		WaterPoint: handler.NewWaterPointHandler(pointSvc),
		Feedback:   handler.NewFeedbackHandler(feedbackSvc),
		Hydration:  handler.NewHydrationHandler(hydrationSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc, checks),
	}, middleware.JWT(authSvc), limiter.Middleware())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("rating_mode", ratings.Mode()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
