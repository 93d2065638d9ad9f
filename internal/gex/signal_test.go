package gex

import (
	"testing"
	"time"
)

func morning() time.Time {
	return time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
}

func lateDay() time.Time {
	return time.Date(2025, 6, 2, 14, 15, 0, 0, time.UTC)
}

func profileWith(rows []StrikeRow, spot float64) *Profile {
	return Analyze("SPY", rows, spot, 1e9)
}

func TestGenerateSignal_MeanReversion(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 95, NetGexM: -300},
		{Strike: 105, NetGexM: 900},
	}
	p := profileWith(rows, 100)

	sig := GenerateSignal(PositiveGamma, p, morning(), DefaultSignalConfig())
	if sig == nil || sig.Type != MeanReversion {
		t.Fatalf("signal = %+v, want MEAN_REVERSION", sig)
	}
	if sig.Bias != NeutralBias {
		t.Errorf("bias = %v, want NEUTRAL", sig.Bias)
	}
}

func TestGenerateSignal_AccelerationOnUpsideBreak(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 95, NetGexM: -300},
		{Strike: 105, NetGexM: 200},
	}
	p := profileWith(rows, 108) // beyond the call wall

	sig := GenerateSignal(NegativeGamma, p, morning(), DefaultSignalConfig())
	if sig == nil || sig.Type != Acceleration {
		t.Fatalf("signal = %+v, want ACCELERATION", sig)
	}
	if sig.Bias != Bullish {
		t.Errorf("bias = %v, want BULLISH", sig.Bias)
	}
}

func TestGenerateSignal_AccelerationOnDownsideBreak(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 95, NetGexM: -300},
		{Strike: 105, NetGexM: 200},
	}
	p := profileWith(rows, 92)

	sig := GenerateSignal(NegativeGamma, p, morning(), DefaultSignalConfig())
	if sig == nil || sig.Type != Acceleration || sig.Bias != Bearish {
		t.Fatalf("signal = %+v, want bearish ACCELERATION", sig)
	}
}

func TestGenerateSignal_NegativeGammaInsideBandIsQuiet(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 95, NetGexM: -300},
		{Strike: 105, NetGexM: 200},
	}
	p := profileWith(rows, 100)

	if sig := GenerateSignal(NegativeGamma, p, morning(), DefaultSignalConfig()); sig != nil {
		t.Errorf("expected no signal inside the band, got %+v", sig)
	}
}

func TestGenerateSignal_MagnetPin(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 95, NetGexM: -100},
		{Strike: 100, NetGexM: 50},
		{Strike: 100.3, NetGexM: 800}, // dominant call wall right above spot
	}
	p := profileWith(rows, 100.1)

	sig := GenerateSignal(NeutralGamma, p, lateDay(), DefaultSignalConfig())
	if sig == nil || sig.Type != MagnetPin {
		t.Fatalf("signal = %+v, want MAGNET_PIN", sig)
	}
	if sig.Bias != Bullish {
		t.Errorf("bias = %v, want BULLISH toward the wall", sig.Bias)
	}

	// Same setup before the late-day cutoff: quiet.
	if early := GenerateSignal(NeutralGamma, p, morning(), DefaultSignalConfig()); early != nil {
		t.Errorf("expected no pin before cutoff, got %+v", early)
	}
}

func TestGenerateSignal_NoDominantWallNoPin(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 99.8, NetGexM: -500},
		{Strike: 100.2, NetGexM: 510}, // nearly matched walls
	}
	p := profileWith(rows, 100)

	if sig := GenerateSignal(NeutralGamma, p, lateDay(), DefaultSignalConfig()); sig != nil {
		t.Errorf("expected no signal without a dominant wall, got %+v", sig)
	}
}

func TestGenerateSignal_AbsenceIsFirstClass(t *testing.T) {
	rows := []StrikeRow{
		{Strike: 95, NetGexM: -30},
		{Strike: 105, NetGexM: 40},
	}
	p := profileWith(rows, 100)

	if sig := GenerateSignal(NeutralGamma, p, morning(), DefaultSignalConfig()); sig != nil {
		t.Errorf("expected nil signal, got %+v", sig)
	}
	if sig := GenerateSignal(NeutralGamma, nil, morning(), DefaultSignalConfig()); sig != nil {
		t.Errorf("expected nil signal for nil profile, got %+v", sig)
	}
}

func TestPlaybookFor_StrictLookup(t *testing.T) {
	for _, typ := range []SignalType{MeanReversion, Acceleration, MagnetPin} {
		pb, err := PlaybookFor(typ)
		if err != nil {
			t.Errorf("PlaybookFor(%v) returned error: %v", typ, err)
		}
		if pb.Approach == "" || pb.Risk == "" || pb.TimeHorizon == "" {
			t.Errorf("PlaybookFor(%v) returned incomplete playbook: %+v", typ, pb)
		}
	}

	if _, err := PlaybookFor("GAMMA_SQUEEZE"); err == nil {
		t.Error("expected error for unknown signal type, got none")
	}
}

func TestParseSignalType_BoundaryNormalization(t *testing.T) {
	typ, err := ParseSignalType(" mean_reversion ")
	if err != nil || typ != MeanReversion {
		t.Errorf("ParseSignalType = (%v, %v), want MEAN_REVERSION", typ, err)
	}

	if _, err := ParseSignalType("squeeze"); err == nil {
		t.Error("expected error for unrecognized signal string")
	}
}
