package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanshika/momoledger/internal/config"
	"github.com/vanshika/momoledger/internal/database"
	"github.com/vanshika/momoledger/internal/export"
	"github.com/vanshika/momoledger/internal/graph"
	"github.com/vanshika/momoledger/internal/loader"
	"github.com/vanshika/momoledger/internal/logging"
	"github.com/vanshika/momoledger/internal/reconcile"
	"github.com/vanshika/momoledger/internal/repository"
)

const (
	targetSQLite = "sqlite"
	targetGraph  = "graph"
)

var errUnknownTarget = errors.New("unknown target")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var (
		inPath  = flag.String("in", cfg.Data.JSONPath, "transactions.json produced by parse")
		target  = flag.String("target", targetSQLite, "load target: sqlite or graph")
		dbPath  = flag.String("db", cfg.Database.Path, "SQLite database file (sqlite target)")
		workers = flag.Int("workers", 4, "number of concurrent workers for loading")
	)
	flag.Parse()

	logger := logging.Component(logging.New(cfg.Logging), "ingest")

	txs, err := export.ReadFile(*inPath)
	if err != nil {
		logger.Error("failed to load transactions", "error", err, "path", *inPath)
		os.Exit(1)
	}
	if len(txs) == 0 {
		logger.Warn("transactions dataset empty", "path", *inPath)
	}

	gaps := reconcile.Analyze(reconcile.EntriesFromTransactions(txs))
	for _, gap := range gaps.Gaps {
		if gap.Kind == reconcile.KindSharedIdentifier {
			logger.Warn("identities collapse into one user", "identifiers", gap.Identifiers, "identity_ids", gap.IdentityIDs, "names", gap.Names)
		}
	}
	logger.Info("identity reconciliation",
		"identities", gaps.Identities,
		"shared_identifier", gaps.Count(reconcile.KindSharedIdentifier),
		"masked_variant", gaps.Count(reconcile.KindMaskedVariant),
		"near_duplicate_name", gaps.Count(reconcile.KindNearDuplicateName),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink, closeSink, err := buildSink(ctx, logger, cfg, *target, *dbPath)
	if err != nil {
		logger.Error("failed to open load target", "target", *target, "error", err)
		os.Exit(1)
	}
	defer closeSink()

	start := time.Now()
	logger.Info("loading transactions", "count", len(txs), "workers", *workers, "target", *target)
	result, err := loader.New(sink, *workers, logger).Load(ctx, *inPath, txs)

	logger.Info("ingestion complete",
		"duration", time.Since(start).String(),
		"input", result.Input,
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"target_total", result.SinkTotal,
	)
	if err != nil {
		logger.Error("transaction ingestion failed", "error", err)
		os.Exit(1)
	}
	if result.SinkTotal < result.Input {
		logger.Warn("target holds fewer transactions than the input", "input", result.Input, "target_total", result.SinkTotal)
	}
}

func buildSink(ctx context.Context, logger *slog.Logger, cfg config.Config, target, dbPath string) (loader.Sink, func(), error) {
	switch target {
	case targetSQLite:
		store, err := database.OpenStore(dbPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened database", "path", dbPath)
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing database failed", "error", err)
			}
		}, nil
	case targetGraph:
		client, err := buildGraphClient(ctx, logger, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.New(client)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w %q (want %s or %s)", errUnknownTarget, target, targetSQLite, targetGraph)
	}
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	client, err := graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
