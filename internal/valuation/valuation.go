package valuation

import (
	"math"
	"sort"
	"time"

	"gloveiq-backend/internal/catalog"
)

type Result struct {
	PointEstimate      *float64
	RangeLow           *float64
	RangeHigh          *float64
	SuggestedListPrice *float64
	CompsUsed          int
	Source             string
	LiquidityScore     int
}

// Percentile computes an R-7 style percentile over sorted values: index
// p*(n-1), linearly interpolated between the surrounding order statistics.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	idx := p * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Compute derives the price statistics the resolved mode is allowed to
// disclose. includeRange covers both disclosing modes; includeEstimate is
// true only for the full estimate mode.
func Compute(sel Selection, includeEstimate, includeRange bool, now time.Time) Result {
	r := Result{
		CompsUsed:      len(sel.Comps),
		Source:         sel.Source,
		LiquidityScore: liquidityScore(sel.Comps, now),
	}
	if len(sel.Comps) == 0 {
		return r
	}

	prices := make([]float64, len(sel.Comps))
	for i, s := range sel.Comps {
		prices[i] = s.PriceUSD
	}
	sort.Float64s(prices)

	p25 := Percentile(prices, 0.25)
	median := Percentile(prices, 0.50)
	p75 := Percentile(prices, 0.75)

	if includeRange {
		r.RangeLow = &p25
		r.RangeHigh = &p75
	}
	if includeEstimate {
		point := 0.55*median + 0.45*p75
		r.PointEstimate = &point
		r.SuggestedListPrice = &point
	} else if includeRange {
		suggested := 0.5*p75 + 0.5*median
		r.SuggestedListPrice = &suggested
	}
	return r
}

// liquidityScore is a 0-100 proxy for pricing confidence: comp depth up to 60
// points, recency within 120 days up to 30, and a 10 point bonus for tight
// price dispersion about the median.
func liquidityScore(comps []catalog.Sale, now time.Time) int {
	n := len(comps)
	score := 60 * math.Min(1, float64(n)/12)

	cutoff := now.AddDate(0, 0, -120)
	recent := 0
	for _, s := range comps {
		if s.SaleDate.After(cutoff) {
			recent++
		}
	}
	score += 30 * math.Min(1, float64(recent)/8)

	if n > 0 {
		prices := make([]float64, n)
		for i, s := range comps {
			prices[i] = s.PriceUSD
		}
		sort.Float64s(prices)
		median := Percentile(prices, 0.50)

		var sumSq float64
		for _, p := range prices {
			d := p - median
			sumSq += d * d
		}
		if math.Sqrt(sumSq/float64(n)) < 80 {
			score += 10
		}
	}

	return int(math.Round(score))
}
