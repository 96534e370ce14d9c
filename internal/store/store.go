// Package store keeps the transactions JSON file behind a CRUD interface.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vanshika/momoledger/internal/domain"
	"github.com/vanshika/momoledger/internal/export"
)

// ErrNotFound is returned when no transaction has the requested ID.
var ErrNotFound = errors.New("transaction not found")

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type  domain.TransactionType
	Phone string
}

func (f Filter) matches(tx domain.Transaction) bool {
	if f.Type != "" && tx.TransactionType != f.Type {
		return false
	}
	if f.Phone == "" {
		return true
	}
	for _, p := range tx.Participants {
		if p.PhoneNumber == f.Phone {
			return true
		}
	}
	return false
}

// FileStore holds every transaction in memory and rewrites the backing file
// after each mutation.
type FileStore struct {
	mu   sync.RWMutex
	path string
	txs  []domain.Transaction
}

// Open loads the store from path. A missing file yields an empty store.
func Open(path string) (*FileStore, error) {
	txs, err := export.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		txs = []domain.Transaction{}
	}
	return &FileStore{path: path, txs: txs}, nil
}

// Len returns the number of stored transactions.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// List returns the transactions matching filter in stored order.
func (s *FileStore) List(_ context.Context, filter Filter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		if filter.matches(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Get returns the transaction with the given ID.
func (s *FileStore) Get(_ context.Context, id int) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Transaction{}, ErrNotFound
	}
	return s.txs[idx], nil
}

// Create stores tx under max existing ID + 1, ignoring any ID it carries.
func (s *FileStore) Create(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for _, existing := range s.txs {
		if existing.TransactionID > maxID {
			maxID = existing.TransactionID
		}
	}
	tx.TransactionID = maxID + 1
	tx = normalize(tx)

	next := append(append(make([]domain.Transaction, 0, len(s.txs)+1), s.txs...), tx)
	if err := s.persist(next); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// Update replaces the transaction with the given ID. The stored ID is kept
// whatever the payload says.
func (s *FileStore) Update(_ context.Context, id int, tx domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Transaction{}, ErrNotFound
	}
	tx.TransactionID = id
	tx = normalize(tx)

	next := append(make([]domain.Transaction, 0, len(s.txs)), s.txs...)
	next[idx] = tx
	if err := s.persist(next); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// Delete removes and returns the transaction with the given ID.
func (s *FileStore) Delete(_ context.Context, id int) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Transaction{}, ErrNotFound
	}
	removed := s.txs[idx]

	next := make([]domain.Transaction, 0, len(s.txs)-1)
	next = append(next, s.txs[:idx]...)
	next = append(next, s.txs[idx+1:]...)
	if err := s.persist(next); err != nil {
		return domain.Transaction{}, err
	}
	return removed, nil
}

func (s *FileStore) indexOf(id int) int {
	for i, tx := range s.txs {
		if tx.TransactionID == id {
			return i
		}
	}
	return -1
}

// persist writes txs to a temporary file next to the store and renames it
// into place, then swaps the in-memory state.
func (s *FileStore) persist(txs []domain.Transaction) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".transactions-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := export.WriteJSON(tmp, txs); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	s.txs = txs
	return nil
}

func normalize(tx domain.Transaction) domain.Transaction {
	if tx.TransactionType == "" {
		tx.TransactionType = domain.TypeOther
	}
	if tx.Status == "" {
		tx.Status = domain.StatusConfirmed
	}
	if tx.Participants == nil {
		tx.Participants = []domain.Participant{}
	}
	return tx
}
