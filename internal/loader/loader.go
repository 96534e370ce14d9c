// Package loader bulk-loads assembled transactions into a persistent sink.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/momoledger/internal/domain"
)

// Sink is a bulk-load target. LoadTransaction reports false when the
// transaction already exists and was left untouched.
type Sink interface {
	LoadTransaction(ctx context.Context, tx domain.Transaction) (bool, error)
	CountTransactions(ctx context.Context) (int, error)
	StartRun(ctx context.Context, run domain.ImportRun) error
	FinishRun(ctx context.Context, run domain.ImportRun) error
}

// TaskError accumulates multiple errors produced during a bulk load.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Result summarises one load run.
type Result struct {
	Run        domain.ImportRun
	Input      int
	SinkTotal  int
	Loaded     int
	Skipped    int
	Failed     int
	Incomplete bool
}

// Loader pushes transactions into a Sink using a worker pool.
type Loader struct {
	sink    Sink
	workers int
	logger  *slog.Logger
}

// New creates a Loader with the provided concurrency.
func New(sink Sink, workers int, logger *slog.Logger) *Loader {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		sink:    sink,
		workers: workers,
		logger:  logger,
	}
}

// Load records an import run, loads every transaction and finishes the run
// with the final counts. Individual failures are returned as a *TaskError
// alongside a populated Result; the load itself keeps going.
func (l *Loader) Load(ctx context.Context, source string, txs []domain.Transaction) (Result, error) {
	run := domain.ImportRun{
		ID:        uuid.New(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
	logger := l.logger.With("run_id", run.ID.String(), "source", source)

	if err := l.sink.StartRun(ctx, run); err != nil {
		return Result{Run: run, Input: len(txs)}, err
	}

	var loaded, skipped atomic.Int64
	loadErr := l.run(ctx, len(txs), func(idx int) error {
		tx := txs[idx]
		ok, err := l.sink.LoadTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", tx.TransactionID, err)
		}
		if ok {
			loaded.Add(1)
		} else {
			skipped.Add(1)
		}
		return nil
	})

	result := Result{
		Run:     run,
		Input:   len(txs),
		Loaded:  int(loaded.Load()),
		Skipped: int(skipped.Load()),
	}

	var taskErr *TaskError
	switch {
	case loadErr == nil:
	case errors.As(loadErr, &taskErr):
		result.Failed = len(taskErr.Errors)
		for _, err := range taskErr.Errors {
			logger.Warn("transaction failed to load", "error", err)
		}
	default:
		// cancelled before every transaction was attempted
		result.Incomplete = true
		result.Failed = result.Input - result.Loaded - result.Skipped
	}

	run.FinishedAt = time.Now().UTC()
	run.Loaded = result.Loaded
	run.Skipped = result.Skipped
	run.Failed = result.Failed
	result.Run = run

	finishCtx := context.WithoutCancel(ctx)
	if err := l.sink.FinishRun(finishCtx, run); err != nil {
		return result, errors.Join(loadErr, err)
	}

	total, err := l.sink.CountTransactions(finishCtx)
	if err != nil {
		return result, errors.Join(loadErr, err)
	}
	result.SinkTotal = total

	logger.Info("load completed",
		"input", result.Input,
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"sink_total", result.SinkTotal,
	)
	return result, loadErr
}

func (l *Loader) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				errCh <- err
			}
		}
	}

	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go worker()
	}

	cancelled := false
Loop:
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case indexCh <- i:
		case <-ctx.Done():
			cancelled = true
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		taskErr.append(err)
	}
	if cancelled {
		return ctx.Err()
	}
	return taskErr.asError()
}
