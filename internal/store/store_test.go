package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/export"
)

func seedStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.json")
	seed := []domain.Transaction{
		{
			TransactionID:     1,
			TransactionFields: domain.TransactionFields{TransactionType: domain.TypeDeposit, Status: domain.StatusConfirmed, MessageText: "one"},
			Participants: []domain.Participant{
				{UserID: 1, Name: "John Clive", PhoneNumber: "*256700000001", UserType: domain.RoleSender},
			},
		},
		{
			TransactionID:     5,
			TransactionFields: domain.TransactionFields{TransactionType: domain.TypePayment, Status: domain.StatusConfirmed, MessageText: "five"},
			Participants: []domain.Participant{
				{UserID: 2, Name: "Jane Smith", PhoneNumber: "256700000002", UserType: domain.RoleReceiver},
			},
		},
	}
	require.NoError(t, export.WriteFile(path, seed))

	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestOpen_MissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestList_Filters(t *testing.T) {
	s, _ := seedStore(t)
	ctx := context.Background()

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	payments, err := s.List(ctx, Filter{Type: domain.TypePayment})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, 5, payments[0].TransactionID)

	byPhone, err := s.List(ctx, Filter{Phone: "*256700000001"})
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	require.Equal(t, 1, byPhone[0].TransactionID)
}

func TestGet(t *testing.T) {
	s, _ := seedStore(t)

	tx, err := s.Get(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "five", tx.MessageText)

	_, err = s.Get(context.Background(), 42)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestCreate_AssignsMaxPlusOne(t *testing.T) {
	s, path := seedStore(t)

	created, err := s.Create(context.Background(), domain.Transaction{
		TransactionID:     1,
		TransactionFields: domain.TransactionFields{MessageText: "new"},
	})
	require.NoError(t, err)
	require.Equal(t, 6, created.TransactionID)
	require.Equal(t, domain.TypeOther, created.TransactionType)
	require.Equal(t, domain.StatusConfirmed, created.Status)
	require.NotNil(t, created.Participants)

	onDisk, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, onDisk, 3)
	require.Equal(t, 6, onDisk[2].TransactionID)
}

func TestUpdate_PreservesID(t *testing.T) {
	s, path := seedStore(t)

	updated, err := s.Update(context.Background(), 1, domain.Transaction{
		TransactionID:     99,
		TransactionFields: domain.TransactionFields{TransactionType: domain.TypeTransfer, MessageText: "changed"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, updated.TransactionID)

	reopened, err := Open(path)
	require.NoError(t, err)
	tx, err := reopened.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "changed", tx.MessageText)
	require.Equal(t, domain.TypeTransfer, tx.TransactionType)

	_, err = s.Update(context.Background(), 99, domain.Transaction{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s, path := seedStore(t)

	removed, err := s.Delete(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "five", removed.MessageText)
	require.Equal(t, 1, s.Len())

	onDisk, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, onDisk, 1)

	_, err = s.Delete(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_EmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "transactions.json")
	s, err := Open(path)
	require.NoError(t, err)

	created, err := s.Create(context.Background(), domain.Transaction{})
	require.NoError(t, err)
	require.Equal(t, 1, created.TransactionID)

	onDisk, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, onDisk, 1)
}
