package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	mysqlengine "github.com/askdb/askdb/internal/query/mysql"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/websearch"
)

func main() {
	cfg, err := config.LoadFromEnv("askdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	loader := schema.NewLoader(cfg.Scenarios.SchemaDir, logger)

	engine, err := mysqlengine.Open(context.Background(), map[schema.Scenario]config.DatabaseConfig{
		schema.Scenario13: cfg.Scenarios.Scenario13,
		schema.Scenario45: cfg.Scenarios.Scenario45,
	}, cfg.Scenarios.Scenario13.QueryTimeout, logger)
	if err != nil {
		logger.Error("failed to open scenario databases", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	var llm nl2sql.Generator
	if cfg.AI.Enabled {
		generator, err := nl2sql.NewLLMGenerator(nl2sql.LLMConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
		}, loader)
		if err != nil {
			logger.Error("failed to initialize llm generator", slog.Any("error", err))
			os.Exit(1)
		}
		llm = generator
	}

	var vanna nl2sql.Generator
	if cfg.Vanna.Enabled {
		generator, err := nl2sql.NewVannaGenerator(nl2sql.VannaConfig{
			BaseURL: cfg.Vanna.BaseURL,
			Timeout: cfg.Vanna.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize vanna generator", slog.Any("error", err))
			os.Exit(1)
		}
		vanna = generator
	}
	resolver := nl2sql.NewResolver(llm, vanna, logger)

	deps := api.Dependencies{
		Logger:   logger,
		Resolver: resolver,
		Engine:   engine,
		Schemas:  loader,
		Readiness: api.CombineReadinessChecks(
			api.CheckSchemaDir(cfg),
			engine.Ping,
		),
		DependencyTimeout: time.Second,
		ExportDir:         cfg.Export.OutputDir,
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Error("failed to open history store", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()
		deps.History = store
	}

	if cfg.Search.Enabled {
		deps.Search = websearch.NewClient(websearch.Config{
			BaseURL:    cfg.Search.BaseURL,
			Timeout:    cfg.Search.Timeout,
			MaxResults: cfg.Search.MaxResults,
		})
	}

	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
