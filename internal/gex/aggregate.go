package gex

import "sort"

// contractGexM computes one contract's gamma exposure in millions of
// dollars: OI x gamma x 100 shares x spot^2 x 1% move, scaled to $M.
func contractGexM(c Contract, spot float64) float64 {
	return (float64(c.OpenInterest) * c.Gamma * 100 * spot * spot * 0.01) / 1_000_000
}

// AggregateStrikes reduces per-contract records into one row per
// distinct strike, sorted ascending. Calls contribute positive GEX,
// puts negative. The volume-weighted column scales each strike's net
// GEX by its share of total chain volume; when nothing traded it is 0
// for every strike, which is a documented degenerate case rather than
// an error. An empty contract set yields an empty slice.
func AggregateStrikes(contracts []Contract, spot float64) []StrikeRow {
	if len(contracts) == 0 {
		return nil
	}

	byStrike := make(map[float64]*StrikeRow)
	var totalChainVolume int64

	for _, c := range contracts {
		row, ok := byStrike[c.Strike]
		if !ok {
			row = &StrikeRow{Strike: c.Strike}
			byStrike[c.Strike] = row
		}

		gexM := contractGexM(c, spot)
		if c.Type == Call {
			row.CallGexM += gexM
		} else {
			row.PutGexM -= gexM
		}
		row.TotalVolume += c.Volume
		row.TotalOpenInterest += c.OpenInterest
		totalChainVolume += c.Volume
	}

	rows := make([]StrikeRow, 0, len(byStrike))
	for _, row := range byStrike {
		row.NetGexM = row.CallGexM + row.PutGexM
		if totalChainVolume > 0 {
			row.VolumeWeightedGex = row.NetGexM * float64(row.TotalVolume) / float64(totalChainVolume)
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Strike < rows[j].Strike })
	return rows
}
