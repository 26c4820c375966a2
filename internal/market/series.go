// Package market provides the immutable price series consumed by the
// simulation engine, with loaders for MT4-style CSV exports and a
// Parquet-backed cache.
package market

import (
	"sort"
	"time"

	"fxsim/internal/domain"
)

// PriceSeries is a time-sorted sequence of bars. It is built once per run
// and never mutated afterwards, so concurrent readers need no locking.
type PriceSeries struct {
	bars []domain.Bar
}

// NewPriceSeries copies and stably sorts the given bars by timestamp.
// Duplicate timestamps are kept in input order; callers wanting
// deterministic results should supply de-duplicated input.
func NewPriceSeries(bars []domain.Bar) *PriceSeries {
	sorted := make([]domain.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return &PriceSeries{bars: sorted}
}

// Len returns the number of bars in the series.
func (s *PriceSeries) Len() int { return len(s.bars) }

// At returns the bar at index i.
func (s *PriceSeries) At(i int) domain.Bar { return s.bars[i] }

// From returns the suffix of the series whose timestamps are at or after
// ts. The returned slice aliases the series and must not be modified.
func (s *PriceSeries) From(ts time.Time) []domain.Bar {
	i := sort.Search(len(s.bars), func(i int) bool {
		return !s.bars[i].Timestamp.Before(ts)
	})
	return s.bars[i:]
}

// Bars returns the full sorted series. The returned slice aliases the
// series and must not be modified.
func (s *PriceSeries) Bars() []domain.Bar { return s.bars }
