package market

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"fxsim/internal/domain"
)

// barRecord is the Parquet schema for cached bar data. Prices are stored
// as decimal strings so a cache round-trip is exact; float64 columns would
// not be.
type barRecord struct {
	Timestamp int64  `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      string `parquet:"open"`
	High      string `parquet:"high"`
	Low       string `parquet:"low"`
	Close     string `parquet:"close"`
	Volume    int64  `parquet:"volume"`
}

// WriteParquet writes the series to a Parquet file at path, creating
// parent directories as needed.
func WriteParquet(path string, series *PriceSeries) error {
	records := make([]barRecord, 0, series.Len())
	for _, b := range series.Bars() {
		records = append(records, barRecord{
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open.String(),
			High:      b.High.String(),
			Low:       b.Low.String(),
			Close:     b.Close.String(),
			Volume:    b.Volume,
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing parquet cache %s: %w", path, err)
	}
	return nil
}

// ReadParquet loads a cached series from a Parquet file written by
// WriteParquet.
func ReadParquet(path string) (*PriceSeries, error) {
	records, err := parquet.ReadFile[barRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading parquet cache %s: %w", path, err)
	}

	bars := make([]domain.Bar, 0, len(records))
	for i, r := range records {
		bar, err := recordToBar(r)
		if err != nil {
			return nil, fmt.Errorf("record %d in %s: %w", i, path, err)
		}
		bars = append(bars, bar)
	}
	return NewPriceSeries(bars), nil
}

func recordToBar(r barRecord) (domain.Bar, error) {
	prices := make([]decimal.Decimal, 4)
	for i, field := range []struct {
		name  string
		value string
	}{
		{"open", r.Open},
		{"high", r.High},
		{"low", r.Low},
		{"close", r.Close},
	} {
		p, err := decimal.NewFromString(field.value)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parsing %s: %w", field.name, err)
		}
		prices[i] = p
	}

	return domain.Bar{
		Timestamp: time.UnixMilli(r.Timestamp).UTC(),
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    r.Volume,
	}, nil
}
