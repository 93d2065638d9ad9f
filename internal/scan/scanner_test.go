package scan

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/feed"
	"github.com/dgnsrekt/gex-monitor/internal/gex"
)

type mockProvider struct {
	snapshots map[string]*feed.ChainSnapshot
	errs      map[string]error
}

func (m *mockProvider) Snapshot(_ context.Context, symbol string, _ feed.FilterWindow) (*feed.ChainSnapshot, error) {
	if err, ok := m.errs[symbol]; ok {
		return nil, err
	}
	if snap, ok := m.snapshots[symbol]; ok {
		return snap, nil
	}
	return nil, feed.ErrNoOptions
}

func snapshotFor(symbol string) *feed.ChainSnapshot {
	return &feed.ChainSnapshot{
		Symbol: symbol,
		Spot:   100,
		Contracts: []gex.Contract{
			{Strike: 95, Type: gex.Put, Gamma: 0.04, OpenInterest: 900, Volume: 100},
			{Strike: 105, Type: gex.Call, Gamma: 0.05, OpenInterest: 1200, Volume: 300},
		},
		FetchedAt: time.Now(),
	}
}

func testRequest(symbols ...string) Request {
	return Request{
		Symbols:         symbols,
		Window:          feed.DefaultWindow(),
		MajorThresholdM: 1,
		Signals:         gex.DefaultSignalConfig(),
	}
}

func TestScan_MixedOutcomes(t *testing.T) {
	provider := &mockProvider{
		snapshots: map[string]*feed.ChainSnapshot{"SPY": snapshotFor("SPY")},
		errs: map[string]error{
			"BRK.A": feed.ErrNoOptions,
			"QQQ":   feed.ErrTimeout,
		},
	}
	s := NewScanner(provider, 4, zap.NewNop())

	batch, err := s.Scan(context.Background(), testRequest("SPY", "BRK.A", "QQQ"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if batch.Total != 3 || batch.Success != 1 || batch.NoData != 1 || batch.Failed != 1 {
		t.Errorf("batch = %+v, want total 3 success 1 nodata 1 failed 1", batch)
	}
	if len(batch.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(batch.Results))
	}

	// Results are sorted by symbol for stable output.
	byName := map[string]SymbolResult{}
	for i, r := range batch.Results {
		if i > 0 && batch.Results[i-1].Symbol > r.Symbol {
			t.Errorf("results not sorted: %s before %s", batch.Results[i-1].Symbol, r.Symbol)
		}
		byName[r.Symbol] = r
	}

	spy := byName["SPY"]
	if spy.Profile == nil || spy.Error != "" {
		t.Errorf("SPY result = %+v, want a profile", spy)
	}
	if spy.Regime == "" {
		t.Error("SPY result missing regime")
	}
	if brk := byName["BRK.A"]; !brk.NoData || brk.Error != "" {
		t.Errorf("BRK.A result = %+v, want no-data", brk)
	}
	if qqq := byName["QQQ"]; qqq.Error == "" || qqq.NoData {
		t.Errorf("QQQ result = %+v, want an error", qqq)
	}
}

func TestScan_EmptySymbolList(t *testing.T) {
	s := NewScanner(&mockProvider{}, 2, zap.NewNop())

	batch, err := s.Scan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if batch.Total != 0 || len(batch.Results) != 0 {
		t.Errorf("batch = %+v, want empty", batch)
	}
}

func TestScan_InvalidRequestRejected(t *testing.T) {
	s := NewScanner(&mockProvider{}, 2, zap.NewNop())

	req := testRequest("SPY")
	req.MajorThresholdM = 0
	if _, err := s.Scan(context.Background(), req); err == nil {
		t.Error("expected error for non-positive major threshold")
	}

	req = testRequest("SPY")
	req.Window.StrikeRangePct = 2
	if _, err := s.Scan(context.Background(), req); err == nil {
		t.Error("expected error for invalid filter window")
	}
}

func TestScanOne_TimeoutSurfacesAsError(t *testing.T) {
	provider := &mockProvider{errs: map[string]error{"SPY": feed.ErrTimeout}}
	s := NewScanner(provider, 1, zap.NewNop())

	res := s.ScanOne(context.Background(), "SPY", testRequest("SPY"))
	if res.Error == "" || res.NoData {
		t.Errorf("result = %+v, want a timeout error", res)
	}
}

func TestScanOne_PinGateRunsOnExchangeTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}

	// A dominant call wall 0.3% above spot: pinnable, but only after
	// the exchange-local cutoff hour.
	snap := &feed.ChainSnapshot{
		Symbol: "SPY",
		Spot:   100,
		Contracts: []gex.Contract{
			{Strike: 100.3, Type: gex.Call, Gamma: 0.05, OpenInterest: 1000, Volume: 300},
			{Strike: 95, Type: gex.Put, Gamma: 0.04, OpenInterest: 100, Volume: 100},
		},
		FetchedAt: time.Now(),
	}
	provider := &mockProvider{snapshots: map[string]*feed.ChainSnapshot{"SPY": snap}}
	s := NewScanner(provider, 1, zap.NewNop())

	// 15:00 UTC on a Monday is 11:00 in New York: a UTC wall clock is
	// already past the 14:00 cutoff, the exchange clock is not.
	at := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	s.UseClock(func() time.Time { return at.In(ny) })

	res := s.ScanOne(context.Background(), "SPY", testRequest("SPY"))
	if res.Signal != nil {
		t.Fatalf("signal = %+v before the exchange-local cutoff, want none", res.Signal)
	}

	at = time.Date(2025, 6, 2, 19, 30, 0, 0, time.UTC) // 15:30 in New York
	res = s.ScanOne(context.Background(), "SPY", testRequest("SPY"))
	if res.Signal == nil || res.Signal.Type != gex.MagnetPin {
		t.Fatalf("signal = %+v after the cutoff, want MAGNET_PIN", res.Signal)
	}
}

func TestScanOne_ProfileFeedsRegimeAndSignal(t *testing.T) {
	provider := &mockProvider{snapshots: map[string]*feed.ChainSnapshot{"SPY": snapshotFor("SPY")}}
	s := NewScanner(provider, 1, zap.NewNop())
	s.now = func() time.Time { return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) }

	res := s.ScanOne(context.Background(), "SPY", testRequest("SPY"))
	if res.Profile == nil {
		t.Fatalf("result = %+v, want profile", res)
	}
	if got := gex.Classify(res.Profile.TotalNetGexM); got != res.Regime {
		t.Errorf("regime %v inconsistent with profile total %v", res.Regime, res.Profile.TotalNetGexM)
	}
}
