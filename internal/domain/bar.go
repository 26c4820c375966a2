package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV sample for a fixed time interval. Bars are immutable
// once loaded; all prices are exact decimals.
type Bar struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}
