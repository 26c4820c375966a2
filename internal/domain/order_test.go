package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func testPricing(t *testing.T) Pricing {
	t.Helper()
	return Pricing{
		Spread:     dec(t, "0.2"),
		Commission: dec(t, "100"),
	}
}

func TestExecutionPrice(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)
	pricing := testPricing(t)

	buy := NewOrder("b1", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"), nil, nil, pricing)
	if got, want := buy.ExecutionPrice(dec(t, "148.320")), dec(t, "148.420"); !got.Equal(want) {
		t.Errorf("BUY execution price = %s, want %s", got, want)
	}

	sell := NewOrder("s1", ts, OrderTypeSell, dec(t, "148.215"), dec(t, "10000"), nil, nil, pricing)
	if got, want := sell.ExecutionPrice(dec(t, "148.100")), dec(t, "148.000"); !got.Equal(want) {
		t.Errorf("SELL execution price = %s, want %s", got, want)
	}
}

func TestIsExecutableBuy(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)
	o := NewOrder("b1", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.300"), decPtr(t, "148.150"), testPricing(t))

	// 148.320 + 0.1 = 148.420 >= TP 148.300.
	if !o.IsExecutable(dec(t, "148.320")) {
		t.Error("expected take-profit trigger at 148.320")
	}
	// 148.040 + 0.1 = 148.140 <= SL 148.150.
	if !o.IsExecutable(dec(t, "148.040")) {
		t.Error("expected stop-loss trigger at 148.040")
	}
	// 148.190 + 0.1 = 148.290: inside both levels.
	if o.IsExecutable(dec(t, "148.190")) {
		t.Error("unexpected trigger between TP and SL")
	}
}

func TestIsExecutableSell(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)
	o := NewOrder("s1", ts, OrderTypeSell, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.150"), decPtr(t, "148.350"), testPricing(t))

	// 148.100 - 0.1 = 148.000 <= TP 148.150.
	if !o.IsExecutable(dec(t, "148.100")) {
		t.Error("expected take-profit trigger at 148.100")
	}
	// 148.500 - 0.1 = 148.400 >= SL 148.350.
	if !o.IsExecutable(dec(t, "148.500")) {
		t.Error("expected stop-loss trigger at 148.500")
	}
	// 148.300 - 0.1 = 148.200: inside both levels.
	if o.IsExecutable(dec(t, "148.300")) {
		t.Error("unexpected trigger between TP and SL")
	}
}

func TestIsExecutableMissingLevels(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)

	// No TP: the take-profit half of the predicate is disabled.
	o := NewOrder("s1", ts, OrderTypeSell, dec(t, "148.215"), dec(t, "10000"),
		nil, decPtr(t, "148.350"), testPricing(t))
	if o.IsExecutable(dec(t, "100.000")) {
		t.Error("order without TP must not trigger on favourable price")
	}
	if !o.IsExecutable(dec(t, "148.500")) {
		t.Error("expected stop-loss trigger with TP unset")
	}

	// Neither level set: nothing ever triggers.
	o = NewOrder("b1", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		nil, nil, testPricing(t))
	if o.IsExecutable(dec(t, "1000")) || o.IsExecutable(dec(t, "0.001")) {
		t.Error("order without TP and SL must never trigger")
	}
}

func TestIsExecutableNonPending(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)

	executed := NewOrder("b1", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.300"), nil, testPricing(t))
	if !executed.Execute(dec(t, "148.320"), ts) {
		t.Fatal("Execute on PENDING order failed")
	}
	if executed.IsExecutable(dec(t, "148.320")) {
		t.Error("executed order reported executable")
	}

	cancelled := NewOrder("b2", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.300"), nil, testPricing(t))
	if !cancelled.Cancel() {
		t.Fatal("Cancel on PENDING order failed")
	}
	if cancelled.IsExecutable(dec(t, "148.320")) {
		t.Error("cancelled order reported executable")
	}
}

func TestExecuteStoresSpreadAdjustedPrice(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)
	execAt := ts.Add(time.Minute)

	o := NewOrder("b1", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.300"), decPtr(t, "148.150"), testPricing(t))
	if !o.Execute(dec(t, "148.320"), execAt) {
		t.Fatal("Execute failed")
	}

	snap := o.Snapshot()
	if snap.Status != OrderStatusExecuted {
		t.Errorf("status = %s, want EXECUTED", snap.Status)
	}
	if snap.ExecutedPrice == nil || !snap.ExecutedPrice.Equal(dec(t, "148.420")) {
		t.Errorf("executed price = %v, want 148.420", snap.ExecutedPrice)
	}
	if snap.ExecutedTime == nil || !snap.ExecutedTime.Equal(execAt) {
		t.Errorf("executed time = %v, want %v", snap.ExecutedTime, execAt)
	}

	// A second fill attempt must be refused and leave the order unchanged.
	if o.Execute(dec(t, "150.000"), execAt.Add(time.Minute)) {
		t.Error("Execute succeeded twice")
	}
	if again := o.Snapshot(); !again.ExecutedPrice.Equal(dec(t, "148.420")) {
		t.Errorf("executed price changed to %s after refused Execute", again.ExecutedPrice)
	}
}

func TestPnLBuy(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)
	o := NewOrder("b1", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.300"), decPtr(t, "148.150"), testPricing(t))

	if _, ok := o.PnL(); ok {
		t.Error("PnL available before execution")
	}

	o.Execute(dec(t, "148.320"), ts.Add(time.Minute))

	// executed = 148.420; (148.420 - 148.215) * 10000 - 100 = 1950.
	pnl, ok := o.PnL()
	if !ok {
		t.Fatal("PnL unavailable after execution")
	}
	if want := dec(t, "1950"); !pnl.Equal(want) {
		t.Errorf("BUY pnl = %s, want %s", pnl, want)
	}
}

func TestPnLSell(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)
	o := NewOrder("s1", ts, OrderTypeSell, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.150"), nil, testPricing(t))

	o.Execute(dec(t, "148.100"), ts.Add(time.Minute))

	// executed = 148.000; (148.215 - 148.000) * 10000 - 100 = 2050.
	pnl, ok := o.PnL()
	if !ok {
		t.Fatal("PnL unavailable after execution")
	}
	if want := dec(t, "2050"); !pnl.Equal(want) {
		t.Errorf("SELL pnl = %s, want %s", pnl, want)
	}
}

func TestCancel(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)

	o := NewOrder("b1", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.300"), nil, testPricing(t))
	if !o.Cancel() {
		t.Fatal("Cancel on PENDING order failed")
	}
	if o.Cancel() {
		t.Error("Cancel succeeded twice")
	}
	if got := o.Status(); got != OrderStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got)
	}

	executed := NewOrder("b2", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.300"), nil, testPricing(t))
	executed.Execute(dec(t, "148.320"), ts)
	if executed.Cancel() {
		t.Error("Cancel succeeded on executed order")
	}
	if snap := executed.Snapshot(); snap.Status != OrderStatusExecuted || snap.ExecutedPrice == nil {
		t.Error("cancel on executed order disturbed executed fields")
	}
}

func TestTradeDetails(t *testing.T) {
	ts := time.Date(2024, 1, 19, 10, 15, 0, 0, time.UTC)
	o := NewOrder("b1", ts, OrderTypeBuy, dec(t, "148.215"), dec(t, "10000"),
		decPtr(t, "148.300"), decPtr(t, "148.150"), testPricing(t))

	if _, ok := o.TradeDetails(); ok {
		t.Error("trade details available before execution")
	}

	execAt := ts.Add(time.Minute)
	o.Execute(dec(t, "148.320"), execAt)

	td, ok := o.TradeDetails()
	if !ok {
		t.Fatal("trade details unavailable after execution")
	}
	if td.OrderID != "b1" || td.Type != OrderTypeBuy || td.Status != OrderStatusExecuted {
		t.Errorf("unexpected identity fields: %+v", td)
	}
	if !td.EntryPrice.Equal(dec(t, "148.215")) || !td.ExecutedPrice.Equal(dec(t, "148.420")) {
		t.Errorf("prices = entry %s executed %s", td.EntryPrice, td.ExecutedPrice)
	}
	if !td.Spread.Equal(dec(t, "0.2")) || !td.Commission.Equal(dec(t, "100")) {
		t.Errorf("cost model = spread %s commission %s", td.Spread, td.Commission)
	}
	if !td.PnL.Equal(dec(t, "1950")) {
		t.Errorf("pnl = %s, want 1950", td.PnL)
	}
	if !td.ExecutedTime.Equal(execAt) {
		t.Errorf("executed time = %v, want %v", td.ExecutedTime, execAt)
	}
}
