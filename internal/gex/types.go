package gex

import "time"

// OptionType identifies the side of an option contract.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// Contract is one option contract from the filtered chain. The supplier
// applies the DTE/strike-range window; the engine only aggregates.
type Contract struct {
	Strike       float64    `json:"strike"`
	Type         OptionType `json:"type"`
	Gamma        float64    `json:"gamma"`
	OpenInterest int64      `json:"open_interest"`
	Volume       int64      `json:"volume"`
}

// StrikeRow is the per-strike aggregation result. GEX values are in
// millions of dollars except VolumeWeightedGex, which is a relative
// participation measure.
type StrikeRow struct {
	Strike            float64 `json:"strike"`
	NetGexM           float64 `json:"net_gex_m"`
	CallGexM          float64 `json:"call_gex_m"`
	PutGexM           float64 `json:"put_gex_m"`
	VolumeWeightedGex float64 `json:"volume_weighted_gex"`
	TotalVolume       int64   `json:"total_volume"`
	TotalOpenInterest int64   `json:"total_open_interest"`
}

// MajorLevel is a strike whose |net GEX| clears the caller's threshold.
type MajorLevel struct {
	Strike  float64    `json:"strike"`
	Side    OptionType `json:"side"`
	NetGexM float64    `json:"net_gex_m"`
}

// CumulativePoint is one point on the running-sum GEX curve.
type CumulativePoint struct {
	Strike         float64 `json:"strike"`
	CumulativeGexM float64 `json:"cumulative_gex_m"`
}

// Profile is the full analysis output for one symbol at one point in
// time. It is created fresh per calculation and never mutated; nil
// pointer fields mean the level could not be determined.
type Profile struct {
	Symbol        string            `json:"symbol"`
	SpotPrice     float64           `json:"spot_price"`
	TotalNetGexM  float64           `json:"total_net_gex_m"`
	TotalCallGexM float64           `json:"total_call_gex_m"`
	TotalPutGexM  float64           `json:"total_put_gex_m"`
	CallWall      *float64          `json:"call_wall"`
	PutWall       *float64          `json:"put_wall"`
	ZeroGamma     *float64          `json:"zero_gamma"`
	MajorLevels   []MajorLevel      `json:"major_levels"`
	Cumulative    []CumulativePoint `json:"cumulative"`
	Rows          []StrikeRow       `json:"rows"`
	ComputedAt    time.Time         `json:"computed_at"`
}

// HasExpectedRange reports whether the put wall sits strictly below the
// call wall, i.e. whether an expected-range band between the walls is
// meaningful to render. An inverted or incomplete band is a display
// decision for the consumer, not an error.
func (p *Profile) HasExpectedRange() bool {
	return p.PutWall != nil && p.CallWall != nil && *p.PutWall < *p.CallWall
}

// NetGexAtSpot linearly interpolates net GEX at the spot price from the
// two bracketing strike rows. Returns nil when spot falls outside the
// aggregated strike range.
func (p *Profile) NetGexAtSpot() *float64 {
	rows := p.Rows
	if len(rows) == 0 {
		return nil
	}
	if p.SpotPrice < rows[0].Strike || p.SpotPrice > rows[len(rows)-1].Strike {
		return nil
	}
	for i := 0; i < len(rows)-1; i++ {
		lo, hi := rows[i], rows[i+1]
		if p.SpotPrice < lo.Strike || p.SpotPrice > hi.Strike {
			continue
		}
		if hi.Strike == lo.Strike {
			v := lo.NetGexM
			return &v
		}
		frac := (p.SpotPrice - lo.Strike) / (hi.Strike - lo.Strike)
		v := lo.NetGexM + frac*(hi.NetGexM-lo.NetGexM)
		return &v
	}
	v := rows[len(rows)-1].NetGexM
	return &v
}

// StrongestWall returns the row with the largest |net GEX|, tagged by
// sign, or nil when there are no rows.
func (p *Profile) StrongestWall() *MajorLevel {
	var best *StrikeRow
	for i := range p.Rows {
		row := &p.Rows[i]
		if best == nil || abs(row.NetGexM) > abs(best.NetGexM) {
			best = row
		}
	}
	if best == nil {
		return nil
	}
	side := Call
	if best.NetGexM < 0 {
		side = Put
	}
	return &MajorLevel{Strike: best.Strike, Side: side, NetGexM: best.NetGexM}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
