package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vanshika/momoledger/internal/domain"
)

const runTimeLayout = time.RFC3339

// ErrTransactionNotFound is returned by Transaction for unknown IDs.
var ErrTransactionNotFound = errors.New("transaction not found")

// Store loads parsed transactions into the relational schema.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database that already has the schema applied.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenStore opens the database at path, applies migrations and returns a Store.
func OpenStore(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := RunMigrations(path); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadTransaction inserts tx with its category and participants in one
// database transaction. It reports false without writing anything when the
// TransactionID is already present.
func (s *Store) LoadTransaction(ctx context.Context, tx domain.Transaction) (bool, error) {
	if tx.TransactionType == "" {
		return false, fmt.Errorf("transaction %d: TransactionType is required", tx.TransactionID)
	}
	if tx.Status == "" {
		return false, fmt.Errorf("transaction %d: Status is required", tx.TransactionID)
	}

	loaded := false
	err := WithTx(ctx, s.db, func(sqlTx *sql.Tx) error {
		var exists int
		err := sqlTx.QueryRowContext(ctx, `SELECT COUNT(1) FROM "Transaction" WHERE TransactionID = ?`, tx.TransactionID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check transaction: %w", err)
		}
		if exists > 0 {
			return nil
		}

		categoryID, err := getOrCreateCategory(ctx, sqlTx, string(tx.TransactionType))
		if err != nil {
			return err
		}

		_, err = sqlTx.ExecContext(ctx, `INSERT INTO "Transaction"
			(TransactionID, TransactionType, Amount, Currency, DateTime, ReferenceNumber, BalanceAfterTransaction, Status, MessageText, CategoryID)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.TransactionID, string(tx.TransactionType), tx.Amount, nullString(tx.Currency), nullString(tx.DateTime),
			nullString(tx.ReferenceNumber), tx.BalanceAfterTransaction, tx.Status, tx.MessageText, categoryID,
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		for _, p := range tx.Participants {
			userID, err := getOrCreateUser(ctx, sqlTx, p)
			if err != nil {
				return err
			}
			_, err = sqlTx.ExecContext(ctx,
				`INSERT OR IGNORE INTO TransactionParticipant (TransactionID, UserID, Role) VALUES (?, ?, ?)`,
				tx.TransactionID, userID, string(p.UserType),
			)
			if err != nil {
				return fmt.Errorf("insert participant: %w", err)
			}
		}

		loaded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("load transaction %d: %w", tx.TransactionID, err)
	}
	return loaded, nil
}

// getOrCreateCategory returns the CategoryID for name, inserting it when new.
func getOrCreateCategory(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO TransactionCategory (CategoryName) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("insert category %q: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT CategoryID FROM TransactionCategory WHERE CategoryName = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("select category %q: %w", name, err)
	}
	return id, nil
}

// getOrCreateUser keys users by PhoneNumber; the first Name and UserType seen win.
func getOrCreateUser(ctx context.Context, tx *sql.Tx, p domain.Participant) (int64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO "User" (PhoneNumber, Name, UserType) VALUES (?, ?, ?)`,
		p.PhoneNumber, p.Name, string(p.UserType),
	)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", p.PhoneNumber, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT UserID FROM "User" WHERE PhoneNumber = ?`, p.PhoneNumber).Scan(&id); err != nil {
		return 0, fmt.Errorf("select user %q: %w", p.PhoneNumber, err)
	}
	return id, nil
}

// CountTransactions returns the number of stored transactions.
func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM "Transaction"`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// CountUsers returns the number of stored users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM "User"`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Transaction reads one stored transaction back with its participants. UserID
// on each participant is the database user ID.
func (s *Store) Transaction(ctx context.Context, id int) (domain.Transaction, error) {
	var (
		tx                            domain.Transaction
		txType                        string
		currency, dateTime, reference sql.NullString
		amount, balance               decimal.NullDecimal
	)
	err := s.db.QueryRowContext(ctx, `SELECT TransactionID, TransactionType, Amount, Currency, DateTime,
		ReferenceNumber, BalanceAfterTransaction, Status, MessageText
		FROM "Transaction" WHERE TransactionID = ?`, id).
		Scan(&tx.TransactionID, &txType, &amount, &currency, &dateTime, &reference, &balance, &tx.Status, &tx.MessageText)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("select transaction %d: %w", id, err)
	}
	tx.TransactionType = domain.TransactionType(txType)
	tx.Amount = amount
	tx.BalanceAfterTransaction = balance
	tx.Currency = stringPtr(currency)
	tx.DateTime = stringPtr(dateTime)
	tx.ReferenceNumber = stringPtr(reference)

	rows, err := s.db.QueryContext(ctx, `SELECT u.UserID, u.Name, u.PhoneNumber, p.Role
		FROM TransactionParticipant p JOIN "User" u ON u.UserID = p.UserID
		WHERE p.TransactionID = ?
		ORDER BY CASE p.Role WHEN 'sender' THEN 0 ELSE 1 END`, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("select participants %d: %w", id, err)
	}
	defer rows.Close()

	tx.Participants = []domain.Participant{}
	for rows.Next() {
		var p domain.Participant
		var role string
		if err := rows.Scan(&p.UserID, &p.Name, &p.PhoneNumber, &role); err != nil {
			return domain.Transaction{}, fmt.Errorf("scan participant: %w", err)
		}
		p.UserType = domain.Role(role)
		tx.Participants = append(tx.Participants, p)
	}
	return tx, rows.Err()
}

// StartRun records the start of an import run.
func (s *Store) StartRun(ctx context.Context, run domain.ImportRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, source, started_at) VALUES (?, ?, ?)`,
		run.ID.String(), run.Source, run.StartedAt.UTC().Format(runTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// FinishRun stores the final counts of an import run.
func (s *Store) FinishRun(ctx context.Context, run domain.ImportRun) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE import_runs SET finished_at = ?, loaded = ?, skipped = ?, failed = ? WHERE id = ?`,
		run.FinishedAt.UTC().Format(runTimeLayout), run.Loaded, run.Skipped, run.Failed, run.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update import run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("import run %s was never started", run.ID)
	}
	return nil
}

// Runs lists recorded import runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]domain.ImportRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, started_at, finished_at, loaded, skipped, failed FROM import_runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.ImportRun
	for rows.Next() {
		var (
			run         domain.ImportRun
			id, started string
			finished    sql.NullString
		)
		if err := rows.Scan(&id, &run.Source, &started, &finished, &run.Loaded, &run.Skipped, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		if run.StartedAt, err = time.Parse(runTimeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if finished.Valid {
			if run.FinishedAt, err = time.Parse(runTimeLayout, finished.String); err != nil {
				return nil, fmt.Errorf("parse finished_at: %w", err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
