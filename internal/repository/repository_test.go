package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/graph"
)

func sampleTransaction() domain.Transaction {
	currency := "RWF"
	return domain.Transaction{
		TransactionID: 12,
		TransactionFields: domain.TransactionFields{
			TransactionType: domain.TypeTransfer,
			Amount:          decimal.NewNullDecimal(decimal.NewFromInt(2000)),
			Currency:        &currency,
			Status:          domain.StatusConfirmed,
			MessageText:     "You have transferred 2,000 RWF",
		},
		Participants: []domain.Participant{
			{UserID: 1, Name: "John Clive", PhoneNumber: "*256700000001", UserType: domain.RoleSender},
			{UserID: 2, Name: "Jane Smith", PhoneNumber: "256700000002", UserType: domain.RoleReceiver},
		},
	}
}

func TestRepository_LoadTransaction(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	loaded, err := repo.LoadTransaction(context.Background(), sampleTransaction())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !loaded {
		t.Fatalf("expected transaction to be loaded")
	}

	reads := mem.ReadCalls()
	if len(reads) != 1 || reads[0].Query != transactionExistsCypher {
		t.Fatalf("expected one existence check, got %+v", reads)
	}

	calls := mem.WriteCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 write query, got %d", len(calls))
	}
	call := calls[0]
	if call.Query != loadTransactionCypher {
		t.Fatalf("unexpected query\nexpected:\n%s\ngot:\n%s", loadTransactionCypher, call.Query)
	}
	if call.Params["transactionId"] != int64(12) {
		t.Errorf("expected transactionId 12, got %v", call.Params["transactionId"])
	}
	if call.Params["category"] != "transfer" {
		t.Errorf("expected category transfer, got %v", call.Params["category"])
	}
	if call.Params["senderPhone"] != "*256700000001" || call.Params["receiverPhone"] != "256700000002" {
		t.Errorf("unexpected endpoints %v -> %v", call.Params["senderPhone"], call.Params["receiverPhone"])
	}

	props, ok := call.Params["props"].(map[string]any)
	if !ok {
		t.Fatalf("expected props map, got %T", call.Params["props"])
	}
	if props["amount"] != float64(2000) {
		t.Errorf("amount mismatch: got %v", props["amount"])
	}
	if props["dateTime"] != nil || props["balanceAfterTransaction"] != nil {
		t.Errorf("expected absent fields to be nil, got %v / %v", props["dateTime"], props["balanceAfterTransaction"])
	}

	participants, ok := call.Params["participants"].([]map[string]any)
	if !ok || len(participants) != 2 {
		t.Fatalf("expected 2 participant params, got %#v", call.Params["participants"])
	}
	if participants[0]["role"] != "sender" || participants[1]["phoneNumber"] != "256700000002" {
		t.Errorf("unexpected participant params %+v", participants)
	}
}

func TestRepository_LoadTransactionSkipsExisting(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{{"existing": int64(1)}}})
	repo := New(mem)

	loaded, err := repo.LoadTransaction(context.Background(), sampleTransaction())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if loaded {
		t.Fatalf("expected existing transaction to be skipped")
	}
	if len(mem.WriteCalls()) != 0 {
		t.Fatalf("expected no writes for an existing transaction")
	}
}

func TestRepository_LoadTransactionValidation(t *testing.T) {
	repo := New(graph.NewMemoryClient())

	tx := sampleTransaction()
	tx.TransactionType = ""
	if _, err := repo.LoadTransaction(context.Background(), tx); err == nil {
		t.Fatalf("expected error for missing TransactionType")
	}

	tx = sampleTransaction()
	tx.Status = ""
	if _, err := repo.LoadTransaction(context.Background(), tx); err == nil {
		t.Fatalf("expected error for missing Status")
	}
}

func TestRepository_LoadTransactionError(t *testing.T) {
	boom := errors.New("bolt down")
	repo := New(graph.NewMemoryClient().WithError(boom))

	if _, err := repo.LoadTransaction(context.Background(), sampleTransaction()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestRepository_CountTransactions(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{{"total": int64(42)}}})
	repo := New(mem)

	total, err := repo.CountTransactions(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if total != 42 {
		t.Fatalf("expected 42, got %d", total)
	}
}

func TestRepository_Runs(t *testing.T) {
	mem := graph.NewMemoryClient()
	repo := New(mem)

	run := domain.ImportRun{ID: uuid.New(), Source: "transactions.json", StartedAt: time.Now()}
	if err := repo.StartRun(context.Background(), run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	run.FinishedAt = time.Now()
	run.Loaded = 3
	if err := repo.FinishRun(context.Background(), run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	calls := mem.WriteCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(calls))
	}
	if calls[0].Params["runId"] != run.ID.String() || calls[1].Params["loaded"] != int64(3) {
		t.Fatalf("unexpected run params %+v / %+v", calls[0].Params, calls[1].Params)
	}
}

func TestRepository_EnsureSchema(t *testing.T) {
	mem := graph.NewMemoryClient()
	if err := New(mem).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if len(mem.WriteCalls()) != len(schemaCypher) {
		t.Fatalf("expected %d schema statements, got %d", len(schemaCypher), len(mem.WriteCalls()))
	}
}
