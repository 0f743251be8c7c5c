package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/repository"
	"github.com/noah-isme/lms-content-api/internal/service"
	"github.com/noah-isme/lms-content-api/pkg/config"
	"github.com/noah-isme/lms-content-api/pkg/database"
	"github.com/noah-isme/lms-content-api/pkg/logger"
	"github.com/noah-isme/lms-content-api/pkg/telemetry"
)

// Exit codes.
const (
	exitOK       = 0
	exitProblems = 1
	exitError    = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitError
	}
	// Diagnostics go to stderr so stdout stays machine readable.
	cfg.Log.Format = "console"
	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return exitError
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	shutdownTracing := telemetry.Init(ctx, cfg.Telemetry, cfg.Env, logr)
	defer shutdownTracing(context.Background()) //nolint:errcheck

	lazy := &lazyResolver{ctx: ctx, cfg: cfg, logger: logr}
	defer lazy.Close()

	root := newRootCmd(lazy.connect)
	root.SetContext(ctx)
	if err := root.Execute(); err != nil {
		var problems *problemsFound
		if errors.As(err, &problems) {
			return exitProblems
		}
		return exitError
	}
	return exitOK
}

// lazyResolver connects to postgres on first use so --help works offline.
type lazyResolver struct {
	ctx    context.Context
	cfg    *config.Config
	logger *zap.Logger
	close  func() error
}

func (l *lazyResolver) connect() (resolver, error) {
	dbCfg := l.cfg.Database
	dbCfg.ApplicationName = "hierarchyctl"
	db, err := database.NewPostgres(l.ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	l.close = db.Close

	topics := repository.NewTopicRepository(db)
	content := repository.NewContentRepository(db)
	collections := repository.NewCollectionRepository(db)
	rules := repository.NewFilterRuleRepository(db)
	return service.NewHierarchyService(topics, content, collections, rules, nil, nil, validator.New(), l.logger, service.HierarchyConfig{
		ContentLevel: l.cfg.Hierarchy.ContentLevel,
		Locale:       l.cfg.Hierarchy.Locale,
	}), nil
}

func (l *lazyResolver) Close() {
	if l.close != nil {
		_ = l.close()
	}
}
