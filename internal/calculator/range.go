package calculator

import (
	"math"

	"MoexSentinel/internal/model"
)

const (
	range52wBars    = 260
	range52wMinBars = 50
)

// Range52w scans the most recent 260 bars for the high and low and measures how far price
// sits from each. Every field is nil when fewer than 50 bars are available.
func Range52w(series []model.Candle, price float64) model.Range52w {
	var r model.Range52w
	n := len(series)
	if n < range52wMinBars {
		return r
	}
	start := n - range52wBars
	if start < 0 {
		start = 0
	}

	high := math.Inf(-1)
	low := math.Inf(1)
	for i := start; i < n; i++ {
		if series[i].High > high {
			high = series[i].High
		}
		if series[i].Low < low {
			low = series[i].Low
		}
	}
	if !finite(high) || !finite(low) {
		return r
	}
	r.High = model.Float(high)
	r.Low = model.Float(low)

	if low > 0 && finite(price) {
		r.DistFromLowPct = model.Float(math.Max(0, (price/low-1)*100))
	}
	if price > 0 && finite(price) {
		r.DistToHighPct = model.Float(math.Max(0, (high/price-1)*100))
	}
	return r
}

// Position52w returns where price sits within [low, high] as a 0..1 fraction.
// ok is false when the range is missing or degenerate.
func Position52w(r model.Range52w, price float64) (pos float64, ok bool) {
	if r.High == nil || r.Low == nil || *r.High <= *r.Low {
		return 0, false
	}
	pos = (price - *r.Low) / (*r.High - *r.Low)
	return pos, finite(pos)
}
