package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists the balance in a single-row SQLite table with the
// same versioned schema as FileStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// account table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS account (
			id      INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			balance TEXT    NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating account table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads and validates the single account row.
func (s *SQLiteStore) Load(ctx context.Context) (decimal.Decimal, bool, error) {
	var (
		version int
		raw     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, balance FROM account WHERE id = 1`,
	).Scan(&version, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("reading account row: %w", err)
	}

	if version != schemaVersion {
		return decimal.Decimal{}, false, fmt.Errorf("account row: unsupported schema version %d", version)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("account row: invalid balance %q: %w", raw, err)
	}
	return balance, true, nil
}

// Save upserts the single account row.
func (s *SQLiteStore) Save(ctx context.Context, balance decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO account (id, version, balance) VALUES (1, ?, ?)`,
		schemaVersion, balance.String(),
	)
	if err != nil {
		return fmt.Errorf("writing account row: %w", err)
	}
	return nil
}
