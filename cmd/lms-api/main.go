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
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-content-api/api/swagger"
	"github.com/noah-isme/lms-content-api/internal/handler"
	"github.com/noah-isme/lms-content-api/internal/repository"
	"github.com/noah-isme/lms-content-api/internal/service"
	"github.com/noah-isme/lms-content-api/pkg/cache"
	"github.com/noah-isme/lms-content-api/pkg/config"
	"github.com/noah-isme/lms-content-api/pkg/database"
	"github.com/noah-isme/lms-content-api/pkg/jobs"
	"github.com/noah-isme/lms-content-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-content-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-content-api/pkg/middleware/requestid"
	"github.com/noah-isme/lms-content-api/pkg/telemetry"
)

// @title LMS Content API
// @version 1.0.0
// @description Topic, content and collection catalogue with hierarchical tree resolution
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Init(ctx, cfg.Telemetry, cfg.Env, logr)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("otel shutdown failed", zap.Error(err))
		}
	}()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Hierarchy.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, hierarchy cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = repo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Hierarchy.CacheTTL, logr, cacheRepo != nil).
		WithNamespace(cfg.Redis.KeyPrefix)

	invalidation := service.NewInvalidationService(cacheSvc, nil, metrics, logr)
	queue := jobs.NewQueue("hierarchy-invalidation", invalidation.Handle, jobs.QueueConfig{
		Workers:    cfg.Hierarchy.InvalidationWorkers,
		MaxRetries: cfg.Hierarchy.InvalidationRetries,
		Logger:     logr,
	})
	invalidation.AttachQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()

	validate := validator.New()
	topicRepo := repository.NewTopicRepository(db)
	contentRepo := repository.NewContentRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	ruleRepo := repository.NewFilterRuleRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	hierarchySvc := service.NewHierarchyService(topicRepo, contentRepo, collectionRepo, ruleRepo, cacheSvc, metrics, validate, logr, service.HierarchyConfig{
		ContentLevel: cfg.Hierarchy.ContentLevel,
		Locale:       cfg.Hierarchy.Locale,
		CacheTTL:     cfg.Hierarchy.CacheTTL,
	})
	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(hierarchySvc, logr, nil, nil)
	}

	deps := routeDeps{
		tokens:      service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		audit:       auditRepo,
		metrics:     metrics,
		checks:      checks,
		hierarchy:   hierarchySvc,
		exports:     exportSvc,
		topics:      service.NewTopicService(topicRepo, invalidation, validate, logr),
		content:     service.NewContentService(contentRepo, topicRepo, invalidation, validate, logr),
		collections: service.NewCollectionService(collectionRepo, topicRepo, contentRepo, invalidation, validate, logr),
		filterRules: service.NewFilterRuleService(ruleRepo, invalidation, validate, logr),
		logger:      logr,
		apiPrefix:   cfg.APIPrefix,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(serviceName(cfg)))
	}
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	registerRoutes(r, deps)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func serviceName(cfg *config.Config) string {
	if cfg.Telemetry.ServiceName != "" {
		return cfg.Telemetry.ServiceName
	}
	return "lms-content-api"
}
