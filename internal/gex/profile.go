package gex

import "time"

// Analyze builds a Profile from aggregated strike rows. Rows must be
// sorted ascending by strike (AggregateStrikes guarantees this).
// Empty rows produce a valid "no data" profile: zero totals, nil
// walls/zero-gamma, no major levels.
func Analyze(symbol string, rows []StrikeRow, spot, majorThresholdM float64) *Profile {
	p := &Profile{
		Symbol:     symbol,
		SpotPrice:  spot,
		Rows:       rows,
		ComputedAt: time.Now().UTC(),
	}

	if len(rows) == 0 {
		return p
	}

	for _, row := range rows {
		p.TotalNetGexM += row.NetGexM
		p.TotalCallGexM += row.CallGexM
		p.TotalPutGexM += row.PutGexM
	}

	p.CallWall = findCallWall(rows, spot)
	p.PutWall = findPutWall(rows, spot)
	p.Cumulative = cumulativeCurve(rows)
	p.ZeroGamma = zeroGammaLevel(p.Cumulative)

	for _, row := range rows {
		if abs(row.NetGexM) >= majorThresholdM {
			side := Call
			if row.NetGexM < 0 {
				side = Put
			}
			p.MajorLevels = append(p.MajorLevels, MajorLevel{
				Strike:  row.Strike,
				Side:    side,
				NetGexM: row.NetGexM,
			})
		}
	}

	return p
}

// findCallWall picks the strike with the maximum net GEX among rows at
// or above spot with positive GEX, falling back to the global maximum
// when no such row exists. Ties resolve to the lowest strike, which is
// the row closest to spot on the upside.
func findCallWall(rows []StrikeRow, spot float64) *float64 {
	var best *StrikeRow
	for i := range rows {
		row := &rows[i]
		if row.Strike < spot || row.NetGexM <= 0 {
			continue
		}
		if best == nil || row.NetGexM > best.NetGexM {
			best = row
		}
	}
	if best == nil {
		// No positive GEX above spot: global maximum, lowest strike wins.
		for i := range rows {
			row := &rows[i]
			if best == nil || row.NetGexM > best.NetGexM {
				best = row
			}
		}
	}
	if best == nil {
		return nil
	}
	strike := best.Strike
	return &strike
}

// findPutWall mirrors findCallWall: the most negative net GEX among
// rows at or below spot, falling back to the global minimum. Ties
// resolve to the highest strike (closest to spot on the downside).
func findPutWall(rows []StrikeRow, spot float64) *float64 {
	var best *StrikeRow
	for i := range rows {
		row := &rows[i]
		if row.Strike > spot || row.NetGexM >= 0 {
			continue
		}
		if best == nil || row.NetGexM <= best.NetGexM {
			best = row
		}
	}
	if best == nil {
		for i := range rows {
			row := &rows[i]
			if best == nil || row.NetGexM <= best.NetGexM {
				best = row
			}
		}
	}
	if best == nil {
		return nil
	}
	strike := best.Strike
	return &strike
}

func cumulativeCurve(rows []StrikeRow) []CumulativePoint {
	curve := make([]CumulativePoint, len(rows))
	var sum float64
	for i, row := range rows {
		sum += row.NetGexM
		curve[i] = CumulativePoint{Strike: row.Strike, CumulativeGexM: sum}
	}
	return curve
}

// zeroGammaLevel walks the cumulative curve for the first zero crossing
// and linearly interpolates it between the bracketing strikes. A point
// that is exactly zero is a crossing at that strike, which is where the
// interpolation degenerates to. Returns nil when the curve never
// reaches zero.
func zeroGammaLevel(curve []CumulativePoint) *float64 {
	for i := range curve {
		if curve[i].CumulativeGexM == 0 {
			zg := curve[i].Strike
			return &zg
		}
		if i == len(curve)-1 {
			break
		}
		c0, c1 := curve[i].CumulativeGexM, curve[i+1].CumulativeGexM
		if c0*c1 < 0 {
			s0, s1 := curve[i].Strike, curve[i+1].Strike
			zg := s0 + (s1-s0)*(-c0)/(c1-c0)
			return &zg
		}
	}
	return nil
}
