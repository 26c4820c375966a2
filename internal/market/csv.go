package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fxsim/internal/domain"
)

// MT4 exports carry no header row. Columns:
// date, time, day-of-week, open, high, low, close, volume.
const (
	csvFieldCount = 8
	csvTimeLayout = "2006.01.02 15:04"
)

// LoadCSV reads an MT4-style CSV export into a sorted PriceSeries. The
// day-of-week column is ignored; date and time combine to the bar
// timestamp in UTC.
func LoadCSV(path string) (*PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening price data: %w", err)
	}
	defer f.Close()

	series, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return series, nil
}

// ReadCSV parses MT4-style CSV rows from r into a sorted PriceSeries.
func ReadCSV(r io.Reader) (*PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = csvFieldCount

	var bars []domain.Bar
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar, err := parseBar(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	return NewPriceSeries(bars), nil
}

func parseBar(record []string) (domain.Bar, error) {
	ts, err := time.ParseInLocation(csvTimeLayout, record[0]+" "+record[1], time.UTC)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing timestamp: %w", err)
	}

	// record[2] is the day-of-week label; ignored.

	prices := make([]decimal.Decimal, 4)
	for i, name := range []string{"open", "high", "low", "close"} {
		p, err := decimal.NewFromString(record[3+i])
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parsing %s: %w", name, err)
		}
		prices[i] = p
	}

	volume, err := strconv.ParseInt(record[7], 10, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parsing volume: %w", err)
	}

	return domain.Bar{
		Timestamp: ts,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    volume,
	}, nil
}
