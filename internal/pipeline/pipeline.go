// Package pipeline runs the single ordered pass from raw messages to
// transactions with resolved participant identities.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/vanshika/momoledger/internal/corpus"
	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/extract"
	"github.com/vanshika/momoledger/internal/identity"
)

// Options tunes a pass.
type Options struct {
	// Workers is the extraction fan-out. Values below 2 keep extraction sequential.
	Workers int
	Logger  *slog.Logger
}

// Outcome is the per-element result of a pass: exactly one of Transaction or
// Skipped is set.
type Outcome struct {
	Element     int
	Transaction *domain.Transaction
	Skipped     *corpus.Skipped
}

// Report is everything produced by one pass.
type Report struct {
	RunID        uuid.UUID
	Transactions []domain.Transaction
	Outcomes     []Outcome
	ElementsSeen int
	Identities   *identity.Map
}

// Parsed returns how many transactions were assembled.
func (r Report) Parsed() int {
	return len(r.Transactions)
}

// Skipped returns how many elements were dropped.
func (r Report) Skipped() int {
	return len(r.Outcomes) - len(r.Transactions)
}

// ParseFile loads the corpus at path and runs a pass over it.
func ParseFile(path string, opts Options) (Report, error) {
	doc, err := corpus.Load(path)
	if err != nil {
		return Report{}, fmt.Errorf("load corpus: %w", err)
	}
	return Run(doc, opts), nil
}

type extraction struct {
	fields       domain.TransactionFields
	participants []domain.Participant
}

// Run assembles transactions from doc. Extraction may run in parallel, but
// identity resolution and ID assignment always happen in source order, so the
// result does not depend on Workers.
func Run(doc corpus.Document, opts Options) Report {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	report := Report{
		RunID:        uuid.New(),
		Transactions: make([]domain.Transaction, 0, len(doc.Messages)),
		ElementsSeen: doc.ElementsSeen,
		Identities:   identity.NewMap(),
	}
	logger = logger.With("run_id", report.RunID.String())

	extracted := extractAll(doc.Messages, opts.Workers)

	for i, msg := range doc.Messages {
		tx := Assemble(len(report.Transactions)+1, msg, extracted[i].fields, extracted[i].participants, report.Identities)
		report.Transactions = append(report.Transactions, tx)
	}

	report.Outcomes = mergeOutcomes(doc, report.Transactions)
	for _, skipped := range doc.Skipped {
		logger.Warn("skipped malformed element", "element", skipped.Element, "reason", skipped.Reason)
	}

	logger.Info("pass completed",
		"elements_seen", report.ElementsSeen,
		"parsed", report.Parsed(),
		"skipped", report.Skipped(),
		"identities", report.Identities.Len(),
	)
	return report
}

func extractAll(messages []domain.RawMessage, workers int) []extraction {
	results := make([]extraction, len(messages))
	extractOne := func(idx int) {
		body := messages[idx].Body
		results[idx] = extraction{
			fields:       extract.Fields(body),
			participants: extract.Participants(body),
		}
	}

	if workers < 2 || len(messages) < 2 {
		for i := range messages {
			extractOne(i)
		}
		return results
	}

	indexCh := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				extractOne(idx)
			}
		}()
	}
	for i := range messages {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()

	return results
}

// mergeOutcomes interleaves parsed and skipped elements by element index.
func mergeOutcomes(doc corpus.Document, txs []domain.Transaction) []Outcome {
	outcomes := make([]Outcome, 0, len(txs)+len(doc.Skipped))
	si := 0
	for i := range txs {
		element := doc.Messages[i].Element
		for si < len(doc.Skipped) && doc.Skipped[si].Element < element {
			outcomes = append(outcomes, Outcome{Element: doc.Skipped[si].Element, Skipped: &doc.Skipped[si]})
			si++
		}
		outcomes = append(outcomes, Outcome{Element: element, Transaction: &txs[i]})
	}
	for ; si < len(doc.Skipped); si++ {
		outcomes = append(outcomes, Outcome{Element: doc.Skipped[si].Element, Skipped: &doc.Skipped[si]})
	}
	return outcomes
}
