// Command fxsim replays a historical price series against a file of order
// requests and reports execution results and the resulting account
// balance.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fxsim/internal/config"
	"fxsim/internal/domain"
	"fxsim/internal/engine"
	"fxsim/internal/ledger"
	"fxsim/internal/market"
	"fxsim/internal/util"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to YAML config (optional)")
		dataPath   = flag.String("data", "", "price series file (.csv or .parquet)")
		ordersPath = flag.String("orders", "", "order requests JSON file")
		cachePath  = flag.String("cache", "", "write the loaded series to this parquet file")
	)
	flag.Parse()

	if *dataPath == "" || *ordersPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath == "" {
		if p := os.Getenv("FXSIM_CONFIG"); p != "" {
			*cfgPath = p
		}
	}
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	params, err := cfg.TradingParams()
	if err != nil {
		log.Fatalf("invalid trading config: %v", err)
	}

	series, err := loadSeries(*dataPath)
	if err != nil {
		log.Fatalf("failed to load price series: %v", err)
	}
	logger.Info("price series loaded", "path", *dataPath, "bars", series.Len())

	if *cachePath != "" {
		if err := market.WriteParquet(*cachePath, series); err != nil {
			log.Fatalf("failed to write parquet cache: %v", err)
		}
		logger.Info("series cached", "path", *cachePath)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open ledger store: %v", err)
	}
	defer closeStore()

	account := ledger.Open(ctx, store, params.OpeningBalance, logger)
	fmt.Printf("opening balance: %s\n\n", account.Balance())

	eng := engine.New(series, account, engine.Params{
		Spread:          params.Spread,
		Commission:      params.Commission,
		DefaultQuantity: params.DefaultQuantity,
	}, logger)

	requests, err := loadOrders(*ordersPath)
	if err != nil {
		log.Fatalf("failed to load orders: %v", err)
	}
	for i, req := range requests {
		if _, err := eng.PlaceOrder(req); err != nil {
			logger.Warn("order rejected", "index", i, "error", err)
		}
	}

	eng.Wait()
	report(eng)
}

func loadSeries(path string) (*market.PriceSeries, error) {
	if strings.HasSuffix(path, ".parquet") {
		return market.ReadParquet(path)
	}
	return market.LoadCSV(path)
}

func openStore(cfg *config.Config) (ledger.Store, func(), error) {
	switch cfg.Storage.LedgerBackend {
	case config.LedgerBackendSQLite:
		store, err := ledger.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return ledger.NewFileStore(cfg.Storage.LedgerPath), func() {}, nil
	}
}

// orderFile is the order-request document: a JSON array of requests with
// decimal fields as strings. quantity, take_profit and stop_loss may be
// omitted.
type orderFileEntry struct {
	Timestamp  string `json:"timestamp"` // RFC 3339
	OrderType  string `json:"order_type"`
	Price      string `json:"price"`
	Quantity   string `json:"quantity,omitempty"`
	TakeProfit string `json:"take_profit,omitempty"`
	StopLoss   string `json:"stop_loss,omitempty"`
}

func loadOrders(path string) ([]engine.OrderRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []orderFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	requests := make([]engine.OrderRequest, 0, len(entries))
	for i, e := range entries {
		req, err := entryToRequest(e)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func entryToRequest(e orderFileEntry) (engine.OrderRequest, error) {
	ts, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return engine.OrderRequest{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	price, err := decimal.NewFromString(e.Price)
	if err != nil {
		return engine.OrderRequest{}, fmt.Errorf("parsing price: %w", err)
	}

	req := engine.OrderRequest{
		Timestamp: ts,
		Type:      domain.OrderType(e.OrderType),
		Price:     price,
	}
	if e.Quantity != "" {
		q, err := decimal.NewFromString(e.Quantity)
		if err != nil {
			return engine.OrderRequest{}, fmt.Errorf("parsing quantity: %w", err)
		}
		req.Quantity = q
	}
	if e.TakeProfit != "" {
		tp, err := decimal.NewFromString(e.TakeProfit)
		if err != nil {
			return engine.OrderRequest{}, fmt.Errorf("parsing take_profit: %w", err)
		}
		req.TakeProfit = &tp
	}
	if e.StopLoss != "" {
		sl, err := decimal.NewFromString(e.StopLoss)
		if err != nil {
			return engine.OrderRequest{}, fmt.Errorf("parsing stop_loss: %w", err)
		}
		req.StopLoss = &sl
	}
	return req, nil
}

func report(eng *engine.Engine) {
	for _, snap := range eng.GetAllOrders() {
		fmt.Printf("order %s\n", snap.ID)
		fmt.Printf("  type: %s  status: %s\n", snap.Type, snap.Status)
		fmt.Printf("  entry price: %s  quantity: %s\n", snap.Price, snap.Quantity)
		if snap.TakeProfit != nil {
			fmt.Printf("  take profit: %s\n", snap.TakeProfit)
		}
		if snap.StopLoss != nil {
			fmt.Printf("  stop loss: %s\n", snap.StopLoss)
		}
		if snap.Status == domain.OrderStatusExecuted {
			fmt.Printf("  executed price: %s at %s\n",
				snap.ExecutedPrice, snap.ExecutedTime.Format(time.RFC3339))
			fmt.Printf("  pnl: %s\n", snap.PnL)
		}
		fmt.Println(strings.Repeat("-", 50))
	}

	s := eng.Summary()
	fmt.Printf("executed orders: %d/%d\n", s.ExecutedOrders, s.TotalOrders)
	fmt.Printf("total commission: %s\n", s.TotalCommission)
	fmt.Printf("total pnl: %s\n", s.TotalPnL)
	fmt.Printf("final balance: %s\n", eng.GetAccountBalance())
}
