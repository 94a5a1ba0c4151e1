package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nugget/jobtrack/internal/agent"
	"github.com/nugget/jobtrack/internal/applications"
	"github.com/nugget/jobtrack/internal/config"
	"github.com/nugget/jobtrack/internal/intent"
	"github.com/nugget/jobtrack/internal/llm"
	"github.com/nugget/jobtrack/internal/prompts"
	"github.com/nugget/jobtrack/internal/retry"
	"github.com/nugget/jobtrack/internal/router"
	"github.com/nugget/jobtrack/internal/tools"
)

// app is the wired dispatcher: store, tools, tool loop, and router.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	store  *applications.Store
	router *router.Router
}

// openStore opens the application database named in cfg, creating its
// directory if needed.
func openStore(cfg *config.Config, logger *slog.Logger) (*sql.DB, *applications.Store, error) {
	if dir := filepath.Dir(cfg.Store.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := applications.OpenDB(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	store, err := applications.NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, store, nil
}

// newApp wires every component. client serves both the classifier and
// the decision model.
func newApp(cfg *config.Config, logger *slog.Logger, client llm.Client) (*app, error) {
	db, store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	p, err := prompts.Load(prompts.Files{
		ClassifierSystem:   cfg.Prompts.ClassifierSystem,
		ClassifierUser:     cfg.Prompts.ClassifierUser,
		ApplicationManager: cfg.Prompts.ApplicationManager,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	registry := tools.NewRegistry(logger.With("component", "tools"))
	registry.SetRateLimit(cfg.Tools.RatePerMinute, cfg.Tools.Burst)
	registry.MustRegister(tools.ApplicationTools(store)...)

	policy := retry.Policy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	}

	loop := agent.NewLoop(
		logger.With("component", "agent"),
		agent.NewLLMDecider(client, cfg.Models.Decider, logger),
		registry,
		agent.Config{
			SystemPrompt:  p.ApplicationManagerPrompt(time.Now()),
			MaxIterations: cfg.Agent.MaxIterations,
			Retry:         policy,
		},
	)

	r, err := router.New(
		logger.With("component", "router"),
		router.NewLLMClassifier(client, cfg.Models.Classifier, p, logger),
		map[intent.Intent]router.Handler{intent.ApplicationTracking: loop},
		router.Config{Retry: policy},
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("dispatcher ready",
		"classifier_model", cfg.Models.Classifier,
		"decider_model", cfg.Models.Decider,
		"tools", registry.Names(),
		"store", cfg.Store.Path,
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		store:  store,
		router: r,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// pingTimeout bounds the reachability check made before any request.
const pingTimeout = 10 * time.Second

// openApp loads config, checks that the configured Ollama server
// answers, and wires the dispatcher against it.
func openApp(ctx context.Context, stderr io.Writer, opts options) (*app, error) {
	cfg, logger, err := setup(stderr, opts)
	if err != nil {
		return nil, err
	}

	client := llm.NewOllamaClient(cfg.Models.OllamaURL, logger)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("ollama unreachable at %s: %w", cfg.Models.OllamaURL, err)
	}

	return newApp(cfg, logger, client)
}
