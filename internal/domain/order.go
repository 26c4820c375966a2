// Package domain defines the core types of the simulation: OHLCV bars and
// the order state machine with its execution-price and P&L rules.
package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType is the direction of a trade request.
type OrderType string

const (
	OrderTypeBuy  OrderType = "BUY"
	OrderTypeSell OrderType = "SELL"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeBuy || t == OrderTypeSell
}

// OrderStatus is the lifecycle state of an order. Transitions are one-way:
// an order leaves PENDING at most once and never returns.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusExecuted  OrderStatus = "EXECUTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Pricing is the cost model applied to an order: a fixed bid/ask spread
// crossed on execution and a flat per-order commission. It is captured at
// order creation so later configuration changes cannot alter live orders.
type Pricing struct {
	Spread     decimal.Decimal
	Commission decimal.Decimal
}

var two = decimal.NewFromInt(2)

// Order is a single trade request and its execution state. Fields are
// guarded by the internal mutex; callers observe orders through Snapshot,
// PnL and TradeDetails.
type Order struct {
	mu sync.Mutex

	id         string
	timestamp  time.Time
	orderType  OrderType
	price      decimal.Decimal // requested entry price
	quantity   decimal.Decimal
	takeProfit *decimal.Decimal
	stopLoss   *decimal.Decimal
	pricing    Pricing

	status        OrderStatus
	executedPrice *decimal.Decimal
	executedTime  *time.Time
}

// NewOrder creates a PENDING order. takeProfit and stopLoss may be nil;
// a nil level disables that half of the trigger predicate.
func NewOrder(
	id string,
	timestamp time.Time,
	orderType OrderType,
	price decimal.Decimal,
	quantity decimal.Decimal,
	takeProfit *decimal.Decimal,
	stopLoss *decimal.Decimal,
	pricing Pricing,
) *Order {
	return &Order{
		id:         id,
		timestamp:  timestamp,
		orderType:  orderType,
		price:      price,
		quantity:   quantity,
		takeProfit: copyDecimal(takeProfit),
		stopLoss:   copyDecimal(stopLoss),
		pricing:    pricing,
		status:     OrderStatusPending,
	}
}

// ID returns the order identifier.
func (o *Order) ID() string { return o.id }

// Timestamp returns the request time of the order. Scanning starts at the
// first bar at or after this time.
func (o *Order) Timestamp() time.Time { return o.timestamp }

// Type returns the order direction.
func (o *Order) Type() OrderType { return o.orderType }

// ExecutionPrice is the price actually paid or received when crossing the
// spread at the given market price: BUY pays market + spread/2, SELL
// receives market - spread/2. The same adjustment is used when testing
// triggers and when storing the fill.
func (o *Order) ExecutionPrice(marketPrice decimal.Decimal) decimal.Decimal {
	half := o.pricing.Spread.Div(two)
	if o.orderType == OrderTypeBuy {
		return marketPrice.Add(half)
	}
	return marketPrice.Sub(half)
}

// IsExecutable reports whether the candidate market price triggers the
// order. It is always false once the order has left PENDING, which is also
// how cancellation is honoured by an in-flight scan.
func (o *Order) IsExecutable(candidatePrice decimal.Decimal) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.isExecutableLocked(candidatePrice)
}

func (o *Order) isExecutableLocked(candidatePrice decimal.Decimal) bool {
	if o.status != OrderStatusPending {
		return false
	}

	executionPrice := o.ExecutionPrice(candidatePrice)

	if o.orderType == OrderTypeBuy {
		if o.takeProfit != nil && executionPrice.GreaterThanOrEqual(*o.takeProfit) {
			return true
		}
		if o.stopLoss != nil && executionPrice.LessThanOrEqual(*o.stopLoss) {
			return true
		}
		return false
	}

	if o.takeProfit != nil && executionPrice.LessThanOrEqual(*o.takeProfit) {
		return true
	}
	if o.stopLoss != nil && executionPrice.GreaterThanOrEqual(*o.stopLoss) {
		return true
	}
	return false
}

// Execute fills the order at the spread-adjusted execution price for the
// given market price and transitions PENDING -> EXECUTED. It reports false
// without touching the order if the order is no longer PENDING, so a
// cancellation racing with a trigger cannot resurrect the order.
func (o *Order) Execute(marketPrice decimal.Decimal, timestamp time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != OrderStatusPending {
		return false
	}

	p := o.ExecutionPrice(marketPrice)
	t := timestamp
	o.executedPrice = &p
	o.executedTime = &t
	o.status = OrderStatusExecuted
	return true
}

// Cancel transitions PENDING -> CANCELLED and reports whether it did.
// Cancelling an executed or already-cancelled order is a no-op returning
// false; executed fields are left untouched.
func (o *Order) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != OrderStatusPending {
		return false
	}
	o.status = OrderStatusCancelled
	return true
}

// Status returns the current lifecycle state.
func (o *Order) Status() OrderStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// PnL returns the realized profit or loss of the order after commission.
// The second return value is false unless the order has executed.
//
// BUY:  (executed - requested) * quantity - commission
// SELL: (requested - executed) * quantity - commission
func (o *Order) PnL() (decimal.Decimal, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != OrderStatusExecuted || o.executedPrice == nil {
		return decimal.Decimal{}, false
	}
	return o.pnlLocked(), true
}

// pnlLocked computes the realized P&L. Callers must hold o.mu and have
// checked that the order is executed.
func (o *Order) pnlLocked() decimal.Decimal {
	var base decimal.Decimal
	if o.orderType == OrderTypeBuy {
		base = o.executedPrice.Sub(o.price).Mul(o.quantity)
	} else {
		base = o.price.Sub(*o.executedPrice).Mul(o.quantity)
	}
	return base.Sub(o.pricing.Commission)
}

// Snapshot is a point-in-time, read-only copy of an order's state.
type Snapshot struct {
	ID            string
	Timestamp     time.Time
	Type          OrderType
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	TakeProfit    *decimal.Decimal
	StopLoss      *decimal.Decimal
	Status        OrderStatus
	ExecutedPrice *decimal.Decimal
	ExecutedTime  *time.Time
	PnL           *decimal.Decimal // realized P&L, set only when executed
}

// Snapshot returns a copy of the order's current state. Pointer fields are
// deep-copied so the snapshot stays stable after concurrent transitions.
func (o *Order) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	var pnl *decimal.Decimal
	if o.status == OrderStatusExecuted && o.executedPrice != nil {
		p := o.pnlLocked()
		pnl = &p
	}

	return Snapshot{
		ID:            o.id,
		Timestamp:     o.timestamp,
		Type:          o.orderType,
		Price:         o.price,
		Quantity:      o.quantity,
		TakeProfit:    copyDecimal(o.takeProfit),
		StopLoss:      copyDecimal(o.stopLoss),
		Status:        o.status,
		ExecutedPrice: copyDecimal(o.executedPrice),
		ExecutedTime:  copyTime(o.executedTime),
		PnL:           pnl,
	}
}

// TradeDetails is the reporting projection of an executed order.
type TradeDetails struct {
	OrderID       string
	Type          OrderType
	Status        OrderStatus
	EntryPrice    decimal.Decimal
	ExecutedPrice decimal.Decimal
	Quantity      decimal.Decimal
	Spread        decimal.Decimal
	Commission    decimal.Decimal
	PnL           decimal.Decimal
	ExecutedTime  time.Time
}

// TradeDetails returns the executed-trade projection. The second return
// value is false unless the order has executed.
func (o *Order) TradeDetails() (TradeDetails, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != OrderStatusExecuted || o.executedPrice == nil {
		return TradeDetails{}, false
	}

	return TradeDetails{
		OrderID:       o.id,
		Type:          o.orderType,
		Status:        OrderStatusExecuted,
		EntryPrice:    o.price,
		ExecutedPrice: *o.executedPrice,
		Quantity:      o.quantity,
		Spread:        o.pricing.Spread,
		Commission:    o.pricing.Commission,
		PnL:           o.pnlLocked(),
		ExecutedTime:  *o.executedTime,
	}, true
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
