package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"buddy/src/cache"
	"buddy/src/config"
	"buddy/src/database"
	"buddy/src/engine"
	"buddy/src/llm"
	"buddy/src/mood"
	"buddy/src/personality"
	"buddy/src/responder"
	"buddy/src/rng"
	"buddy/src/service"
)

// app holds the wired components shared by the commands.
type app struct {
	settings *config.Settings
	logger   *slog.Logger
	db       *database.DB
	history  cache.History
	catalog  *personality.Catalog
	service  *service.Service
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newApp opens storage, probes the generative backend and builds the
// service. Callers must call close.
func newApp(ctx context.Context) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	logger := newLogger(settings.Log, os.Stderr)
	slog.SetDefault(logger)

	if err := config.EnsureDirs(); err != nil {
		logger.Warn("failed to create config directories", "error", err)
	}

	db, err := database.Open(settings.Database.Driver, settings.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	history, err := cache.New(ctx, settings.Redis, settings.Chat.HistoryLimit)
	if err != nil {
		logger.Warn("history cache disabled", "error", err)
		history = cache.Nop{}
	}

	personasDir, err := config.GetPersonasDir()
	if err != nil {
		personasDir = ""
	}
	catalog := personality.NewCatalog(personasDir)

	capability := llm.Probe(ctx, &settings.LLM)
	logger.Info("generative backend", "capability", capability.String())

	src := rng.Default()
	registry := engine.NewRegistry(engine.Deps{
		Store:      personality.NewStore(db, catalog, logger),
		Classifier: mood.NewClassifier(src, logger),
		Responder:  responder.New(src),
		Capability: capability,
		Timeout:    settings.LLM.Timeout,
		Logger:     logger,
	})

	svc := service.New(db, registry, service.Options{
		History:      history,
		HistoryLimit: settings.Chat.HistoryLimit,
		Logger:       logger,
	})

	return &app{
		settings: settings,
		logger:   logger,
		db:       db,
		history:  history,
		catalog:  catalog,
		service:  svc,
	}, nil
}

func (a *app) close() {
	if err := a.history.Close(); err != nil {
		a.logger.Warn("failed to close history cache", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}
