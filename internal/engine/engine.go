// Package engine implements the order-simulation engine: it owns the
// order registry, runs one scanning goroutine per accepted order against
// the shared price series, and bridges executed orders to the account
// ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fxsim/internal/domain"
	"fxsim/internal/ledger"
	"fxsim/internal/market"
)

// Validation errors returned synchronously by PlaceOrder. No order is
// created and no scan is started when one of these is returned.
var (
	ErrUnknownOrderType    = errors.New("unknown order type")
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrNonPositivePrice    = errors.New("price must be positive")
	ErrNonPositiveLevel    = errors.New("take-profit and stop-loss must be positive when set")
)

// Params are the engine's trading parameters. Zero values fall back to the
// documented defaults at construction, so tests can vary any of them
// without touching core logic.
type Params struct {
	Spread          decimal.Decimal
	Commission      decimal.Decimal
	DefaultQuantity decimal.Decimal
}

// DefaultParams returns the documented defaults: spread 0.2 price units,
// commission 100 currency units per executed order, quantity 10000.
func DefaultParams() Params {
	return Params{
		Spread:          decimal.RequireFromString("0.2"),
		Commission:      decimal.NewFromInt(100),
		DefaultQuantity: decimal.NewFromInt(10000),
	}
}

// OrderRequest is one trade request from the external request source.
// Quantity zero means "use the engine default"; TakeProfit and StopLoss
// are optional.
type OrderRequest struct {
	Timestamp  time.Time
	Type       domain.OrderType
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	TakeProfit *decimal.Decimal
	StopLoss   *decimal.Decimal
}

// Engine owns the order registry and the per-order scanning tasks. The
// price series is read-only and shared by all scans; the account is the
// only shared mutable resource and serializes its own updates.
type Engine struct {
	params  Params
	series  *market.PriceSeries
	account *ledger.Account
	logger  *slog.Logger

	mu       sync.RWMutex
	orders   map[string]*domain.Order
	sequence []string // registry keys in insertion order

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an engine over the given series and account. Zero-valued
// params fields are replaced by DefaultParams.
func New(series *market.PriceSeries, account *ledger.Account, params Params, logger *slog.Logger) *Engine {
	defaults := DefaultParams()
	if params.Spread.IsZero() {
		params.Spread = defaults.Spread
	}
	if params.Commission.IsZero() {
		params.Commission = defaults.Commission
	}
	if params.DefaultQuantity.IsZero() {
		params.DefaultQuantity = defaults.DefaultQuantity
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		params:  params,
		series:  series,
		account: account,
		logger:  logger,
		orders:  make(map[string]*domain.Order),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// PlaceOrder validates the request, registers a PENDING order under a
// fresh id and starts its scan. It returns immediately; execution is
// observed by polling GetOrderStatus.
func (e *Engine) PlaceOrder(req OrderRequest) (string, error) {
	if !req.Type.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOrderType, req.Type)
	}
	if !req.Price.IsPositive() {
		return "", fmt.Errorf("%w: %s", ErrNonPositivePrice, req.Price)
	}

	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = e.params.DefaultQuantity
	}
	if !quantity.IsPositive() {
		return "", fmt.Errorf("%w: %s", ErrNonPositiveQuantity, quantity)
	}

	for _, level := range []*decimal.Decimal{req.TakeProfit, req.StopLoss} {
		if level != nil && !level.IsPositive() {
			return "", fmt.Errorf("%w: %s", ErrNonPositiveLevel, level)
		}
	}

	id := uuid.NewString()
	order := domain.NewOrder(id, req.Timestamp, req.Type, req.Price, quantity,
		req.TakeProfit, req.StopLoss, domain.Pricing{
			Spread:     e.params.Spread,
			Commission: e.params.Commission,
		})

	e.mu.Lock()
	e.orders[id] = order
	e.sequence = append(e.sequence, id)
	e.mu.Unlock()

	e.wg.Add(1)
	go e.scan(order)

	e.logger.Info("order placed",
		"order_id", id,
		"type", string(req.Type),
		"price", req.Price.String(),
		"quantity", quantity.String(),
	)
	return id, nil
}

// scan walks the series from the order's timestamp forward and fills the
// order on the first bar whose high or low triggers it. The fill price is
// the bar high for a BUY and the bar low for a SELL even when the other
// side fired the trigger test; this worst-intrabar-fill asymmetry is part
// of the engine's contract and must not be changed. A series with no
// triggering bar leaves the order PENDING.
func (e *Engine) scan(order *domain.Order) {
	defer e.wg.Done()

	for _, bar := range e.series.From(order.Timestamp()) {
		if e.ctx.Err() != nil {
			return
		}

		if !order.IsExecutable(bar.High) && !order.IsExecutable(bar.Low) {
			continue
		}

		marketPrice := bar.High
		if order.Type() == domain.OrderTypeSell {
			marketPrice = bar.Low
		}
		if !order.Execute(marketPrice, bar.Timestamp) {
			// Cancelled between the trigger test and the fill.
			return
		}

		pnl, ok := order.PnL()
		if ok {
			e.account.Apply(e.ctx, pnl)
		}
		e.logger.Info("order executed",
			"order_id", order.ID(),
			"bar_time", bar.Timestamp,
			"market_price", marketPrice.String(),
			"pnl", pnl.String(),
		)
		return
	}
}

// GetOrderStatus returns a snapshot of the order, or false for an unknown
// id.
func (e *Engine) GetOrderStatus(orderID string) (domain.Snapshot, bool) {
	e.mu.RLock()
	order, ok := e.orders[orderID]
	e.mu.RUnlock()
	if !ok {
		return domain.Snapshot{}, false
	}
	return order.Snapshot(), true
}

// GetAllOrders returns snapshots of every order in insertion order.
func (e *Engine) GetAllOrders() []domain.Snapshot {
	e.mu.RLock()
	orders := make([]*domain.Order, 0, len(e.sequence))
	for _, id := range e.sequence {
		orders = append(orders, e.orders[id])
	}
	e.mu.RUnlock()

	snapshots := make([]domain.Snapshot, 0, len(orders))
	for _, o := range orders {
		snapshots = append(snapshots, o.Snapshot())
	}
	return snapshots
}

// GetAccountBalance returns the current ledger balance.
func (e *Engine) GetAccountBalance() decimal.Decimal {
	return e.account.Balance()
}

// CancelOrder cancels a PENDING order and reports whether it did.
// Cancellation is cooperative: the order's scan stops triggering on its
// next executability check. An executed, already-cancelled or unknown
// order returns false.
func (e *Engine) CancelOrder(orderID string) bool {
	e.mu.RLock()
	order, ok := e.orders[orderID]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	if !order.Cancel() {
		return false
	}
	e.logger.Info("order cancelled", "order_id", orderID)
	return true
}

// Summary aggregates the executed orders of the run.
type Summary struct {
	TotalOrders     int
	ExecutedOrders  int
	TotalCommission decimal.Decimal
	TotalPnL        decimal.Decimal
}

// Summary returns run totals across all executed orders.
func (e *Engine) Summary() Summary {
	e.mu.RLock()
	orders := make([]*domain.Order, 0, len(e.sequence))
	for _, id := range e.sequence {
		orders = append(orders, e.orders[id])
	}
	e.mu.RUnlock()

	s := Summary{TotalOrders: len(orders)}
	for _, o := range orders {
		details, ok := o.TradeDetails()
		if !ok {
			continue
		}
		s.ExecutedOrders++
		s.TotalCommission = s.TotalCommission.Add(details.Commission)
		s.TotalPnL = s.TotalPnL.Add(details.PnL)
	}
	return s
}

// Wait blocks until every started scan has finished, either by executing
// its order or by exhausting the series. Useful for backtests, where the
// full series is available up front and scans always terminate.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close pre-emptively stops outstanding scans and waits for them to
// return. Orders not yet executed stay PENDING.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}
