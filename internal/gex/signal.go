package gex

import (
	"fmt"
	"strings"
	"time"
)

// SignalType enumerates the discrete strategy signals. The set is
// closed: lookups against it fail loudly for anything else.
type SignalType string

const (
	MeanReversion SignalType = "MEAN_REVERSION"
	Acceleration  SignalType = "ACCELERATION"
	MagnetPin     SignalType = "MAGNET_PIN"
)

// Bias is the directional lean attached to a signal.
type Bias string

const (
	Bullish     Bias = "BULLISH"
	Bearish     Bias = "BEARISH"
	NeutralBias Bias = "NEUTRAL"
)

// Signal is one strategy read of a profile. Absence of a signal is a
// first-class state: generators return nil rather than a placeholder.
type Signal struct {
	Type     SignalType `json:"type"`
	Bias     Bias       `json:"bias"`
	Message  string     `json:"message"`
	Validity string     `json:"validity"`
}

// Playbook is the fixed descriptive text for a signal type.
type Playbook struct {
	Approach    string `json:"approach"`
	Risk        string `json:"risk"`
	TimeHorizon string `json:"time_horizon"`
}

var playbooks = map[SignalType]Playbook{
	MeanReversion: {
		Approach:    "Fade moves toward the walls: sell strength near the call wall, buy weakness near the put wall.",
		Risk:        "A close beyond either wall invalidates the range.",
		TimeHorizon: "Intraday to a few sessions.",
	},
	Acceleration: {
		Approach:    "Trade with the break; dealer hedging chases price in the direction of the move.",
		Risk:        "Momentum exhausts quickly once hedging flows are done.",
		TimeHorizon: "Same session.",
	},
	MagnetPin: {
		Approach:    "Expect price to gravitate toward the dominant wall into the close.",
		Risk:        "A late headline can unpin price from the level.",
		TimeHorizon: "Into session close.",
	},
}

// PlaybookFor returns the descriptive text for a signal type. Unknown
// types are a contract violation upstream and produce an error, never
// a silent generic fallback.
func PlaybookFor(t SignalType) (Playbook, error) {
	pb, ok := playbooks[t]
	if !ok {
		return Playbook{}, fmt.Errorf("unknown signal type: %q", t)
	}
	return pb, nil
}

// ParseSignalType normalizes an externally supplied signal string.
// Case folding happens only here, at the boundary; the SignalType
// values themselves are case-exact.
func ParseSignalType(s string) (SignalType, error) {
	t := SignalType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := playbooks[t]; !ok {
		return "", fmt.Errorf("unknown signal type: %q", s)
	}
	return t, nil
}

// SignalConfig holds the tunable thresholds for signal generation.
// The pin parameters are deliberately configuration, not constants.
type SignalConfig struct {
	// PinProximityPct is the max |spot-wall|/spot distance for a pin.
	PinProximityPct float64
	// PinAfterHour is the exchange-local hour after which pins apply.
	PinAfterHour int
	// PinDominanceRatio is how much larger |wall GEX| must be than the
	// opposing wall's for the wall to count as dominant.
	PinDominanceRatio float64
}

// DefaultSignalConfig matches the thresholds the dashboard shipped
// with: 0.5% proximity, 2 PM cutoff, 1.5x dominance.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		PinProximityPct:   0.005,
		PinAfterHour:      14,
		PinDominanceRatio: 1.5,
	}
}

// GenerateSignal maps a regime and profile to at most one strategy
// signal. now must be exchange-local time; it gates the late-day pin.
func GenerateSignal(regime Regime, p *Profile, now time.Time, cfg SignalConfig) *Signal {
	if p == nil || len(p.Rows) == 0 {
		return nil
	}

	if regime == NegativeGamma {
		if sig := accelerationSignal(p); sig != nil {
			return sig
		}
	}

	if regime == PositiveGamma && p.HasExpectedRange() &&
		p.SpotPrice > *p.PutWall && p.SpotPrice < *p.CallWall {
		return &Signal{
			Type:     MeanReversion,
			Bias:     NeutralBias,
			Message:  "Market in positive gamma. Volatility dampened; fade moves toward the walls.",
			Validity: "Intraday to a few sessions",
		}
	}

	if now.Hour() >= cfg.PinAfterHour {
		if sig := pinSignal(p, cfg); sig != nil {
			return sig
		}
	}

	return nil
}

// accelerationSignal fires when spot has broken outside the wall band,
// or when no band is defined at all.
func accelerationSignal(p *Profile) *Signal {
	if p.HasExpectedRange() {
		switch {
		case p.SpotPrice > *p.CallWall:
			return accelWithBias(Bullish)
		case p.SpotPrice < *p.PutWall:
			return accelWithBias(Bearish)
		default:
			return nil // still inside the band
		}
	}

	// No defined band: direction falls back to spot vs zero gamma.
	bias := NeutralBias
	if p.ZeroGamma != nil {
		if p.SpotPrice < *p.ZeroGamma {
			bias = Bearish
		} else {
			bias = Bullish
		}
	}
	return accelWithBias(bias)
}

func accelWithBias(bias Bias) *Signal {
	return &Signal{
		Type:     Acceleration,
		Bias:     bias,
		Message:  "Negative gamma with spot beyond the wall band. Dealers chase price; expect range expansion.",
		Validity: "Same session; momentum exhaustion expected to be rapid",
	}
}

// pinSignal fires when spot sits within the proximity band of a single
// dominant wall late in the session.
func pinSignal(p *Profile, cfg SignalConfig) *Signal {
	if p.SpotPrice <= 0 {
		return nil
	}

	wall, ok := dominantWall(p, cfg.PinDominanceRatio)
	if !ok {
		return nil
	}

	if abs(p.SpotPrice-wall)/p.SpotPrice >= cfg.PinProximityPct {
		return nil
	}

	bias := NeutralBias
	if wall > p.SpotPrice {
		bias = Bullish
	} else if wall < p.SpotPrice {
		bias = Bearish
	}

	return &Signal{
		Type:     MagnetPin,
		Bias:     bias,
		Message:  fmt.Sprintf("Price pinning to the %.2f wall into the close.", wall),
		Validity: "Into session close",
	}
}

// dominantWall returns the wall whose |net GEX| is at least ratio times
// the opposing wall's. A lone wall is dominant by default.
func dominantWall(p *Profile, ratio float64) (float64, bool) {
	switch {
	case p.CallWall == nil && p.PutWall == nil:
		return 0, false
	case p.PutWall == nil:
		return *p.CallWall, true
	case p.CallWall == nil:
		return *p.PutWall, true
	}

	callGex := abs(p.netGexAtStrike(*p.CallWall))
	putGex := abs(p.netGexAtStrike(*p.PutWall))
	switch {
	case callGex >= ratio*putGex:
		return *p.CallWall, true
	case putGex >= ratio*callGex:
		return *p.PutWall, true
	default:
		return 0, false
	}
}

func (p *Profile) netGexAtStrike(strike float64) float64 {
	for _, row := range p.Rows {
		if row.Strike == strike {
			return row.NetGexM
		}
	}
	return 0
}
