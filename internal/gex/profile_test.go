package gex

import (
	"math"
	"testing"
)

func rowsFixture() []StrikeRow {
	return []StrikeRow{
		{Strike: 90, NetGexM: -80},
		{Strike: 95, NetGexM: -40},
		{Strike: 100, NetGexM: 30},
		{Strike: 105, NetGexM: 120},
		{Strike: 110, NetGexM: 60},
	}
}

func TestAnalyze_TotalsAndWalls(t *testing.T) {
	p := Analyze("SPY", rowsFixture(), 101, 50)

	if !almostEqual(p.TotalNetGexM, 90) {
		t.Errorf("total net gex = %v, want 90", p.TotalNetGexM)
	}
	if p.CallWall == nil || *p.CallWall != 105 {
		t.Errorf("call wall = %v, want 105", p.CallWall)
	}
	if p.PutWall == nil || *p.PutWall != 90 {
		t.Errorf("put wall = %v, want 90", p.PutWall)
	}
	if !p.HasExpectedRange() {
		t.Error("expected a valid wall band")
	}
}

func TestAnalyze_WallFallbackAndTieBreak(t *testing.T) {
	// No positive GEX at or above spot: call wall falls back to the
	// global maximum; the tie at net=40 resolves to the lower strike.
	rows := []StrikeRow{
		{Strike: 90, NetGexM: 40},
		{Strike: 95, NetGexM: 40},
		{Strike: 100, NetGexM: 0},
		{Strike: 105, NetGexM: -25},
		{Strike: 110, NetGexM: -25},
	}
	p := Analyze("SPY", rows, 100, 1000)

	if p.CallWall == nil || *p.CallWall != 90 {
		t.Errorf("call wall = %v, want fallback 90", p.CallWall)
	}
	// Put wall tie at net=-25 resolves to the higher strike.
	if p.PutWall == nil || *p.PutWall != 110 {
		t.Errorf("put wall = %v, want 110", p.PutWall)
	}
}

func TestAnalyze_WallSelectionIdempotent(t *testing.T) {
	first := Analyze("SPY", rowsFixture(), 101, 50)
	second := Analyze("SPY", rowsFixture(), 101, 50)

	if *first.CallWall != *second.CallWall || *first.PutWall != *second.PutWall {
		t.Errorf("wall selection not deterministic: (%v,%v) vs (%v,%v)",
			*first.CallWall, *first.PutWall, *second.CallWall, *second.PutWall)
	}
}

func TestAnalyze_ZeroGammaInterpolation(t *testing.T) {
	p := Analyze("SPY", rowsFixture(), 101, 50)

	// Cumulative: -80, -120, -90, 30, 90; sign change between 100 and 105.
	if p.ZeroGamma == nil {
		t.Fatal("expected a zero gamma level")
	}
	zg := *p.ZeroGamma
	if zg <= 100 || zg >= 105 {
		t.Fatalf("zero gamma %v not strictly between bracketing strikes", zg)
	}

	// Re-interpolating the cumulative value at the crossing must be ~0.
	c0, c1 := -90.0, 30.0
	frac := (zg - 100) / (105 - 100)
	atCrossing := c0 + frac*(c1-c0)
	if math.Abs(atCrossing) > 1e-9 {
		t.Errorf("cumulative at crossing = %v, want ~0", atCrossing)
	}
}

func TestAnalyze_CumulativeTouchingZeroIsACrossing(t *testing.T) {
	// Cumulative: 50, 0, -30. The curve hits zero exactly at 95 before
	// turning negative; the crossing is that strike.
	rows := []StrikeRow{
		{Strike: 90, NetGexM: 50},
		{Strike: 95, NetGexM: -50},
		{Strike: 100, NetGexM: -30},
	}
	p := Analyze("SPY", rows, 96, 1000)

	if p.ZeroGamma == nil || *p.ZeroGamma != 95 {
		t.Errorf("zero gamma = %v, want 95", p.ZeroGamma)
	}
}

func TestAnalyze_NoSignChangeNoZeroGamma(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 100, NetGexM: 10},
		{Strike: 105, NetGexM: 20},
	}
	p := Analyze("SPY", rows, 102, 5)
	if p.ZeroGamma != nil {
		t.Errorf("zero gamma = %v, want nil", *p.ZeroGamma)
	}
}

func TestAnalyze_MajorLevels(t *testing.T) {
	p := Analyze("SPY", rowsFixture(), 101, 60)

	want := []MajorLevel{
		{Strike: 90, Side: Put, NetGexM: -80},
		{Strike: 105, Side: Call, NetGexM: 120},
		{Strike: 110, Side: Call, NetGexM: 60}, // threshold is inclusive
	}
	if len(p.MajorLevels) != len(want) {
		t.Fatalf("got %d major levels, want %d: %+v", len(p.MajorLevels), len(want), p.MajorLevels)
	}
	for i, lvl := range p.MajorLevels {
		if lvl != want[i] {
			t.Errorf("major level %d = %+v, want %+v", i, lvl, want[i])
		}
	}
}

func TestAnalyze_EmptyRowsIsValidNoData(t *testing.T) {
	p := Analyze("XYZ", nil, 50, 10)

	if p.TotalNetGexM != 0 {
		t.Errorf("total = %v, want 0", p.TotalNetGexM)
	}
	if p.CallWall != nil || p.PutWall != nil || p.ZeroGamma != nil {
		t.Error("walls and zero gamma must be nil for empty input")
	}
	if len(p.MajorLevels) != 0 {
		t.Errorf("major levels = %v, want none", p.MajorLevels)
	}
	if p.HasExpectedRange() {
		t.Error("no-data profile cannot have an expected range")
	}
}

func TestProfile_NetGexAtSpot(t *testing.T) {
	p := Analyze("SPY", rowsFixture(), 102.5, 50)

	// Halfway between 100 (net 30) and 105 (net 120).
	v := p.NetGexAtSpot()
	if v == nil || !almostEqual(*v, 75) {
		t.Errorf("net gex at spot = %v, want 75", v)
	}

	outside := Analyze("SPY", rowsFixture(), 200, 50)
	if outside.NetGexAtSpot() != nil {
		t.Error("expected nil for spot outside the strike range")
	}
}

func TestProfile_StrongestWall(t *testing.T) {
	p := Analyze("SPY", rowsFixture(), 101, 50)

	sw := p.StrongestWall()
	if sw == nil || sw.Strike != 105 || sw.Side != Call {
		t.Errorf("strongest wall = %+v, want call 105", sw)
	}
}

func TestProfile_InvertedBandIsNotAnError(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 90, NetGexM: 100},  // call-dominated below spot
		{Strike: 110, NetGexM: -90}, // put-dominated above spot
	}
	p := Analyze("SPY", rows, 100, 1000)

	if p.CallWall == nil || p.PutWall == nil {
		t.Fatal("expected both walls via fallback")
	}
	if p.HasExpectedRange() {
		t.Error("inverted band must report no expected range")
	}
}
