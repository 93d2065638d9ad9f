package history

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/gex"
)

func profileFixture(symbol string, total float64) *gex.Profile {
	rows := []gex.StrikeRow{
		{Strike: 95, NetGexM: -total / 3},
		{Strike: 105, NetGexM: total + total/3},
	}
	return gex.Analyze(symbol, rows, 100, 1)
}

func TestRecorder_AppendAndReadBack(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	r.now = func() time.Time { return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) }

	for _, total := range []float64{90, 120, -60} {
		if err := r.Append(profileFixture("SPY", total)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	profiles, err := r.ReadDay("SPY", "2025-06-02")
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("got %d profiles, want 3", len(profiles))
	}
	if profiles[0].Symbol != "SPY" {
		t.Errorf("symbol = %q, want SPY", profiles[0].Symbol)
	}
	if profiles[2].TotalNetGexM >= 0 {
		t.Errorf("third profile total = %v, want negative", profiles[2].TotalNetGexM)
	}
}

func TestRecorder_SymbolsAreIsolated(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	r.now = func() time.Time { return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) }

	if err := r.Append(profileFixture("SPY", 90)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := r.Append(profileFixture("QQQ", 45)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	spy, err := r.ReadDay("SPY", "2025-06-02")
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(spy) != 1 || spy[0].Symbol != "SPY" {
		t.Errorf("SPY file = %+v, want one SPY profile", spy)
	}
}

func TestRecorder_RollsOnDateChange(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	day := time.Date(2025, 6, 2, 15, 59, 0, 0, time.UTC)
	r.now = func() time.Time { return day }
	if err := r.Append(profileFixture("SPY", 90)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	day = day.AddDate(0, 0, 1)
	if err := r.Append(profileFixture("SPY", 30)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	first, err := r.ReadDay("SPY", "2025-06-02")
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	second, err := r.ReadDay("SPY", "2025-06-03")
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("day files hold %d and %d profiles, want 1 and 1", len(first), len(second))
	}
}

func TestRecorder_MissingDayIsEmpty(t *testing.T) {
	r, err := NewRecorder(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	profiles, err := r.ReadDay("SPY", "1999-01-01")
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("got %d profiles for a missing day, want 0", len(profiles))
	}
}
