package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vanshika/momoledger/internal/config"
	"github.com/vanshika/momoledger/internal/corpus"
	"github.com/vanshika/momoledger/internal/export"
	"github.com/vanshika/momoledger/internal/logging"
	"github.com/vanshika/momoledger/internal/pipeline"
	"github.com/vanshika/momoledger/internal/reconcile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var (
		inPath   = flag.String("in", cfg.Data.XMLPath, "SMS backup XML to parse")
		outPath  = flag.String("out", cfg.Data.JSONPath, "where to write transactions.json")
		workers  = flag.Int("workers", cfg.Pipeline.Workers, "extraction workers")
		gapsPath = flag.String("gaps", "", "optional path for the identity reconciliation report")
		preview  = flag.Int("preview", 3, "number of parsed records to log")
	)
	flag.Parse()

	logger := logging.Component(logging.New(cfg.Logging), "parse")

	start := time.Now()
	report, err := pipeline.ParseFile(*inPath, pipeline.Options{Workers: *workers, Logger: logger})
	if err != nil {
		if errors.Is(err, corpus.ErrSourceUnreadable) {
			logger.Error("corpus source unreadable", "path", *inPath, "error", err)
		} else {
			logger.Error("parse failed", "path", *inPath, "error", err)
		}
		os.Exit(1)
	}

	if report.Parsed() == 0 {
		logger.Warn("no transactions parsed", "path", *inPath, "elements", report.ElementsSeen)
	}

	if err := export.WriteFile(*outPath, report.Transactions); err != nil {
		logger.Error("failed to write transactions", "path", *outPath, "error", err)
		os.Exit(1)
	}

	logPreview(logger, report, *preview)

	gaps := reconcile.Analyze(report.Identities.Entries())
	logger.Info("identity reconciliation",
		"identities", gaps.Identities,
		"shared_identifier", gaps.Count(reconcile.KindSharedIdentifier),
		"masked_variant", gaps.Count(reconcile.KindMaskedVariant),
		"near_duplicate_name", gaps.Count(reconcile.KindNearDuplicateName),
	)
	if *gapsPath != "" {
		if err := writeJSON(*gapsPath, gaps); err != nil {
			logger.Error("failed to write reconciliation report", "path", *gapsPath, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("parse complete",
		"run_id", report.RunID.String(),
		"out", *outPath,
		"elements", report.ElementsSeen,
		"transactions", report.Parsed(),
		"skipped", report.Skipped(),
		"duration", time.Since(start).String(),
	)
}

func logPreview(logger *slog.Logger, report pipeline.Report, n int) {
	for i := 0; i < n && i < len(report.Transactions); i++ {
		tx := report.Transactions[i]
		attrs := []any{
			"transaction_id", tx.TransactionID,
			"type", tx.TransactionType,
			"participants", len(tx.Participants),
		}
		if tx.Amount.Valid {
			attrs = append(attrs, "amount", tx.Amount.Decimal.String())
		}
		if tx.Currency != nil {
			attrs = append(attrs, "currency", *tx.Currency)
		}
		if tx.DateTime != nil {
			attrs = append(attrs, "date_time", *tx.DateTime)
		}
		logger.Info("preview", attrs...)
	}
}

func writeJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
