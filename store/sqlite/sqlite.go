/*
Package sqlite provides a SQLite-backed implementation of loyalty.Store.

PURPOSE:
  Production persistence for loyalty accounts. The same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

TABLES:
  accounts:            One row per user: balance, tier, last update
  reward_transactions: Append-only ledger of all balance changes

IDEMPOTENCY ENFORCEMENT:
  UNIQUE(user_id, transaction_id) on reward_transactions is the
  idempotency guard. The history insert and the balance upsert run in
  one SQL transaction, so "check and write" is a single atomic
  conditional operation - two concurrent applies with the same
  transaction id resolve to exactly one success at the constraint.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements touch reward_transactions except the
  administrative account purge, which removes the whole account.

DERIVED BALANCE:
  accounts.points is maintained with a relative add (points = points +
  delta), never an absolute set, so concurrent applies with distinct
  transaction ids commit in either order and the sum stays correct.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/loyalty.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - loyalty/store.go: Interface definition and contract
  - loyalty/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/loyalty-engine/loyalty"
)

// Store implements loyalty.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A :memory: database exists per connection; keep the pool at one
	// so every query sees the same database. File databases are fine
	// with one writer as well - the mutex serializes writes anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Accounts (one row per customer)
	CREATE TABLE IF NOT EXISTS accounts (
		user_id TEXT PRIMARY KEY,
		points INTEGER NOT NULL DEFAULT 0,
		tier TEXT NOT NULL DEFAULT 'Basic',
		last_updated TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Reward transactions (append-only ledger)
	-- seq preserves insertion order = chronological order.
	CREATE TABLE IF NOT EXISTS reward_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		amount INTEGER NOT NULL,
		ts TEXT NOT NULL,
		order_id TEXT,
		description TEXT
	);

	-- CRITICAL: the idempotency guard. A transaction id can appear at
	-- most once per account; the constraint fires inside the same SQL
	-- transaction as the balance upsert.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_user_transaction
		ON reward_transactions(user_id, transaction_id);

	-- Balance/history reads (hot path)
	CREATE INDEX IF NOT EXISTS idx_reward_transactions_user
		ON reward_transactions(user_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNT READS
// =============================================================================

// GetAccount returns the account with its full history, or (nil, nil)
// when the account does not exist.
func (s *Store) GetAccount(ctx context.Context, userID string) (*loyalty.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getAccount(ctx, s.db, userID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getAccount(ctx context.Context, db querier, userID string) (*loyalty.Account, error) {
	var (
		account     loyalty.Account
		lastUpdated string
	)

	err := db.QueryRowContext(ctx,
		"SELECT user_id, points, tier, last_updated FROM accounts WHERE user_id = ?",
		userID,
	).Scan(&account.UserID, &account.Points, &account.Tier, &lastUpdated)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("failed to load account", err)
	}

	account.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)

	history, err := s.loadHistory(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	account.RewardHistory = history

	return &account, nil
}

func (s *Store) loadHistory(ctx context.Context, db querier, userID string) ([]loyalty.RewardTransaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT transaction_id, tx_type, amount, ts, order_id, description
		FROM reward_transactions
		WHERE user_id = ?
		ORDER BY seq ASC
	`, userID)
	if err != nil {
		return nil, storeErr("failed to query transactions", err)
	}
	defer rows.Close()

	var history []loyalty.RewardTransaction
	for rows.Next() {
		var (
			tx          loyalty.RewardTransaction
			ts          string
			orderID     sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&tx.TransactionID, &tx.Type, &tx.Amount, &ts, &orderID, &description); err != nil {
			return nil, storeErr("failed to scan transaction", err)
		}
		tx.Timestamp, _ = time.Parse(time.RFC3339, ts)
		tx.OrderID = orderID.String
		tx.Description = description.String
		history = append(history, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to read transactions", err)
	}
	return history, nil
}

// =============================================================================
// APPLY - The atomic conditional write
// =============================================================================

// ApplyTransaction applies a signed point delta in one SQL transaction:
// append the history row (the unique constraint is the idempotency
// check) and upsert the balance with a relative add.
func (s *Store) ApplyTransaction(ctx context.Context, userID string, pointsDelta int64, transactionID, orderID, description string) (*loyalty.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("failed to begin transaction", err)
	}
	defer sqlTx.Rollback()

	txType := loyalty.TxEarn
	amount := pointsDelta
	if pointsDelta < 0 {
		txType = loyalty.TxRedeem
		amount = -pointsDelta
	}

	now := time.Now().UTC().Format(time.RFC3339)

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO reward_transactions (user_id, transaction_id, tx_type, amount, ts, order_id, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, transactionID, txType, amount, now, nullString(orderID), nullString(description))
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, &loyalty.DuplicateTransactionError{UserID: userID, TransactionID: transactionID}
		}
		return nil, storeErr("failed to append transaction", err)
	}

	// Relative add, guarded against a negative result. Zero rows
	// affected means the account is absent or the balance can't cover
	// a redemption.
	res, err := sqlTx.ExecContext(ctx, `
		UPDATE accounts
		SET points = points + ?, last_updated = ?
		WHERE user_id = ? AND points + ? >= 0
	`, pointsDelta, now, userID, pointsDelta)
	if err != nil {
		return nil, storeErr("failed to update balance", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, storeErr("failed to update balance", err)
	}

	if affected == 0 {
		var existing int64
		err := sqlTx.QueryRowContext(ctx,
			"SELECT points FROM accounts WHERE user_id = ?", userID,
		).Scan(&existing)

		switch {
		case err == sql.ErrNoRows:
			// Create-if-absent: Basic/0 baseline plus the delta, in
			// this same SQL transaction.
			if pointsDelta < 0 {
				return nil, &loyalty.InsufficientBalanceError{UserID: userID, Available: 0, Requested: -pointsDelta}
			}
			_, err := sqlTx.ExecContext(ctx, `
				INSERT INTO accounts (user_id, points, tier, last_updated, created_at)
				VALUES (?, ?, ?, ?, ?)
			`, userID, pointsDelta, loyalty.TierBasic, now, now)
			if err != nil {
				return nil, storeErr("failed to create account", err)
			}
		case err != nil:
			return nil, storeErr("failed to load account", err)
		default:
			return nil, &loyalty.InsufficientBalanceError{UserID: userID, Available: existing, Requested: -pointsDelta}
		}
	}

	account, err := s.getAccount(ctx, sqlTx, userID)
	if err != nil {
		return nil, err
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, storeErr("failed to commit", err)
	}

	return account, nil
}

// =============================================================================
// ADMIN OPERATIONS
// =============================================================================

// SetTier upserts the tier for a user, creating a zero-point account
// if needed. Tier changes never touch the ledger.
func (s *Store) SetTier(ctx context.Context, userID string, tier loyalty.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, points, tier, last_updated, created_at)
		VALUES (?, 0, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			tier = excluded.tier,
			last_updated = excluded.last_updated
	`, userID, tier, now, now)
	if err != nil {
		return storeErr("failed to set tier", err)
	}
	return nil
}

// DeleteAccount removes an account and its history. Idempotent.
func (s *Store) DeleteAccount(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("failed to begin transaction", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM reward_transactions WHERE user_id = ?", userID); err != nil {
		return storeErr("failed to delete transactions", err)
	}
	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM accounts WHERE user_id = ?", userID); err != nil {
		return storeErr("failed to delete account", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return storeErr("failed to commit", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func storeErr(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, loyalty.ErrStoreUnavailable, err)
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

var _ loyalty.Store = (*Store)(nil)
