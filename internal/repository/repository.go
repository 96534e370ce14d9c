// Package repository loads transactions into the graph store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/graph"
)

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// EnsureSchema creates the uniqueness constraints the MERGE statements rely on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaCypher {
		if _, err := r.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("apply graph schema: %w", err)
		}
	}
	return nil
}

// LoadTransaction merges tx, its category and its participants into the
// graph. Users are keyed by phone number. It reports false without writing
// when the transaction already exists.
func (r *Repository) LoadTransaction(ctx context.Context, tx domain.Transaction) (bool, error) {
	if tx.TransactionType == "" {
		return false, fmt.Errorf("transaction %d: TransactionType is required", tx.TransactionID)
	}
	if tx.Status == "" {
		return false, fmt.Errorf("transaction %d: Status is required", tx.TransactionID)
	}

	res, err := r.client.ExecuteRead(ctx, transactionExistsCypher, map[string]any{"transactionId": int64(tx.TransactionID)})
	if err != nil {
		return false, fmt.Errorf("check transaction %d: %w", tx.TransactionID, err)
	}
	if len(res.Records) > 0 && toInt64(res.Records[0]["existing"]) > 0 {
		return false, nil
	}

	sender, _ := tx.Sender()
	receiver, _ := tx.Receiver()
	params := map[string]any{
		"transactionId": int64(tx.TransactionID),
		"category":      string(tx.TransactionType),
		"props":         transactionProperties(tx),
		"participants":  participantParams(tx.Participants),
		"senderPhone":   sender.PhoneNumber,
		"receiverPhone": receiver.PhoneNumber,
		"amount":        decimalValue(tx.Amount),
		"currency":      stringValue(tx.Currency),
	}

	if _, err := r.client.ExecuteWrite(ctx, loadTransactionCypher, params); err != nil {
		return false, fmt.Errorf("load transaction %d: %w", tx.TransactionID, err)
	}
	return true, nil
}

// CountTransactions returns the number of transaction nodes.
func (r *Repository) CountTransactions(ctx context.Context) (int, error) {
	res, err := r.client.ExecuteRead(ctx, countTransactionsCypher, nil)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return int(toInt64(res.Records[0]["total"])), nil
}

// StartRun records an ImportRun node for the load.
func (r *Repository) StartRun(ctx context.Context, run domain.ImportRun) error {
	params := map[string]any{
		"runId":     run.ID.String(),
		"source":    run.Source,
		"startedAt": formatTime(run.StartedAt),
	}
	if _, err := r.client.ExecuteWrite(ctx, startRunCypher, params); err != nil {
		return fmt.Errorf("start import run: %w", err)
	}
	return nil
}

// FinishRun stores the final counts on the ImportRun node.
func (r *Repository) FinishRun(ctx context.Context, run domain.ImportRun) error {
	params := map[string]any{
		"runId":      run.ID.String(),
		"finishedAt": formatTime(run.FinishedAt),
		"loaded":     int64(run.Loaded),
		"skipped":    int64(run.Skipped),
		"failed":     int64(run.Failed),
	}
	if _, err := r.client.ExecuteWrite(ctx, finishRunCypher, params); err != nil {
		return fmt.Errorf("finish import run: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Repository) Close(ctx context.Context) error {
	if r.client == nil {
		return errors.New("graph client is not configured")
	}
	return r.client.Close(ctx)
}

func transactionProperties(tx domain.Transaction) map[string]any {
	return map[string]any{
		"transactionType":         string(tx.TransactionType),
		"amount":                  decimalValue(tx.Amount),
		"currency":                stringValue(tx.Currency),
		"dateTime":                stringValue(tx.DateTime),
		"referenceNumber":         stringValue(tx.ReferenceNumber),
		"balanceAfterTransaction": decimalValue(tx.BalanceAfterTransaction),
		"status":                  tx.Status,
		"messageText":             tx.MessageText,
	}
}

func participantParams(participants []domain.Participant) []map[string]any {
	result := make([]map[string]any, 0, len(participants))
	for _, p := range participants {
		result = append(result, map[string]any{
			"phoneNumber": p.PhoneNumber,
			"name":        p.Name,
			"role":        string(p.UserType),
		})
	}
	return result
}

// decimalValue converts to a float property; graph amounts are for querying,
// the exact value stays in the JSON and relational stores.
func decimalValue(v decimal.NullDecimal) any {
	if !v.Valid {
		return nil
	}
	return v.Decimal.InexactFloat64()
}

func stringValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

var schemaCypher = []string{
	`CREATE CONSTRAINT user_phone IF NOT EXISTS FOR (u:User) REQUIRE u.phoneNumber IS UNIQUE`,
	`CREATE CONSTRAINT transaction_id IF NOT EXISTS FOR (t:Transaction) REQUIRE t.transactionId IS UNIQUE`,
	`CREATE CONSTRAINT category_name IF NOT EXISTS FOR (c:Category) REQUIRE c.name IS UNIQUE`,
}

const transactionExistsCypher = `
OPTIONAL MATCH (t:Transaction {transactionId: $transactionId})
RETURN count(t) AS existing
`

const loadTransactionCypher = `
MERGE (t:Transaction {transactionId: $transactionId})
SET t += $props
MERGE (c:Category {name: $category})
MERGE (t)-[:IN_CATEGORY]->(c)
FOREACH (p IN $participants |
	MERGE (u:User {phoneNumber: p.phoneNumber})
	ON CREATE SET u.name = p.name, u.userType = p.role
	MERGE (u)-[:PARTICIPATED_IN {role: p.role}]->(t)
)
WITH t
OPTIONAL MATCH (s:User {phoneNumber: $senderPhone})
OPTIONAL MATCH (rcv:User {phoneNumber: $receiverPhone})
FOREACH (_ IN CASE WHEN s IS NULL OR rcv IS NULL OR $senderPhone = "" OR $receiverPhone = "" THEN [] ELSE [1] END |
	MERGE (s)-[st:SENT_TO {transactionId: $transactionId}]->(rcv)
	SET st.amount = $amount,
		st.currency = $currency
)
RETURN t.transactionId AS transactionId
`

const countTransactionsCypher = `
MATCH (t:Transaction)
RETURN count(t) AS total
`

const startRunCypher = `
MERGE (r:ImportRun {runId: $runId})
SET r.source = $source,
	r.startedAt = $startedAt
`

const finishRunCypher = `
MATCH (r:ImportRun {runId: $runId})
SET r.finishedAt = $finishedAt,
	r.loaded = $loaded,
	r.skipped = $skipped,
	r.failed = $failed
`
