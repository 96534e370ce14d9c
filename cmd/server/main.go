package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/momoledger/internal/config"
	"github.com/vanshika/momoledger/internal/graph"
	"github.com/vanshika/momoledger/internal/logging"
	"github.com/vanshika/momoledger/internal/server"
	"github.com/vanshika/momoledger/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	st, err := store.Open(cfg.Data.JSONPath)
	if err != nil {
		logger.Error("failed to open transaction store", "path", cfg.Data.JSONPath, "error", err)
		os.Exit(1)
	}
	logger.Info("transactions loaded", "path", cfg.Data.JSONPath, "count", st.Len())

	deps := server.RouterDependencies{
		API:              server.NewAPIHandlers(logging.Component(logger, "api"), st),
		Auth:             cfg.Auth,
		AllowedOrigins:   cfg.Server.AllowedOrigins(),
		AllowCredentials: true,
	}
	if !cfg.Auth.Enabled() {
		logger.Warn("basic auth disabled; set MOMO_AUTH_USERNAME and MOMO_AUTH_PASSWORD to enable it")
	}

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	if graphClient != nil {
		defer func() {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}()
		deps.Health = server.GraphHealthService{Client: graphClient}
	}

	srv := server.New(logger, cfg.Server, server.NewRouter(logger, deps))

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(runCtx); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildGraphClient returns nil when no graph URI is configured; the health
// endpoint then only reports the API itself.
func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, nil
	}
	client, err := graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		return nil, err
	}
	logger.Info("graph health probe enabled", "uri", cfg.Graph.URI)
	return client, nil
}
