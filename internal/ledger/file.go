package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// schemaVersion tags the on-disk ledger document. Documents with any other
// version are treated as corrupt rather than partially trusted.
const schemaVersion = 1

// ledgerDocument is the on-disk schema: a version tag and the balance as a
// decimal string.
type ledgerDocument struct {
	Version int    `json:"version"`
	Balance string `json:"balance"`
}

// FileStore persists the balance as a small JSON document on disk.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads and validates the ledger document.
func (s *FileStore) Load(_ context.Context) (decimal.Decimal, bool, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("reading ledger %s: %w", s.Path, err)
	}

	var doc ledgerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("parsing ledger %s: %w", s.Path, err)
	}
	if doc.Version != schemaVersion {
		return decimal.Decimal{}, false, fmt.Errorf("ledger %s: unsupported schema version %d", s.Path, doc.Version)
	}

	balance, err := decimal.NewFromString(doc.Balance)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("ledger %s: invalid balance %q: %w", s.Path, doc.Balance, err)
	}
	return balance, true, nil
}

// Save writes the ledger document, creating parent directories as needed.
func (s *FileStore) Save(_ context.Context, balance decimal.Decimal) error {
	doc := ledgerDocument{
		Version: schemaVersion,
		Balance: balance.String(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing ledger %s: %w", s.Path, err)
	}
	return nil
}
