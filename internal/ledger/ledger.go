// Package ledger provides the durable single-value cash ledger: an
// in-memory Account serialized over a pluggable Store backend.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fxsim/internal/util"
)

// Store persists the single account balance record.
type Store interface {
	// Load returns the persisted balance. found is false when nothing has
	// been persisted yet; a record that is present but invalid returns an
	// error.
	Load(ctx context.Context) (balance decimal.Decimal, found bool, err error)

	// Save overwrites the persisted balance.
	Save(ctx context.Context, balance decimal.Decimal) error
}

// persistAttempts bounds retries of a failed Save before the in-memory
// value is left to reconcile on the next balance change.
const (
	persistAttempts  = 3
	persistBaseDelay = 50 * time.Millisecond
)

// Account is the running cash balance. All mutations go through Apply,
// which holds a single lock across the read-modify-write and its
// persistence so concurrent updates cannot be lost.
type Account struct {
	mu      sync.Mutex
	balance decimal.Decimal
	store   Store
	logger  *slog.Logger
}

// Open loads the account from the store. A missing record initializes the
// balance to opening and persists it immediately. An unreadable or invalid
// record resets the in-memory balance to zero and logs the condition; the
// fallback value is not force-persisted and the next successful write
// reconciles the store.
func Open(ctx context.Context, store Store, opening decimal.Decimal, logger *slog.Logger) *Account {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Account{store: store, logger: logger}

	balance, found, err := store.Load(ctx)
	switch {
	case err != nil:
		logger.Error("ledger unreadable, resetting balance to zero", "error", err)
		a.balance = decimal.Zero
	case !found:
		a.balance = opening
		if err := a.persist(ctx, opening); err != nil {
			logger.Error("persisting opening balance failed", "error", err)
		}
	default:
		a.balance = balance
	}
	return a
}

// Apply adds delta to the balance and persists the new value before
// returning. A persistence failure is logged and the in-memory balance
// stays authoritative for the rest of the run.
func (a *Account) Apply(ctx context.Context, delta decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.balance = a.balance.Add(delta)
	if err := a.persist(ctx, a.balance); err != nil {
		a.logger.Error("persisting balance failed, in-memory value stays authoritative",
			"balance", a.balance.String(), "error", err)
	}
}

// Balance returns the current in-memory balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

func (a *Account) persist(ctx context.Context, balance decimal.Decimal) error {
	return util.Retry(ctx, persistAttempts, persistBaseDelay, func() error {
		return a.store.Save(ctx, balance)
	})
}
