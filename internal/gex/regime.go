package gex

// Regime is the coarse gamma-positioning classification of a profile.
type Regime string

const (
	PositiveGamma Regime = "POSITIVE_GAMMA"
	NegativeGamma Regime = "NEGATIVE_GAMMA"
	NeutralGamma  Regime = "NEUTRAL"
)

// RegimeThresholdM is $1B expressed in the engine's $M units.
const RegimeThresholdM = 1_000.0

// Classify maps total net GEX to a regime. The three predicates
// partition the real line; the +-threshold boundaries belong to the
// non-neutral classes. Classification is recomputed fresh on every
// profile; hysteresis lives only in the alert monitor.
func Classify(totalNetGexM float64) Regime {
	switch {
	case totalNetGexM >= RegimeThresholdM:
		return PositiveGamma
	case totalNetGexM <= -RegimeThresholdM:
		return NegativeGamma
	default:
		return NeutralGamma
	}
}
