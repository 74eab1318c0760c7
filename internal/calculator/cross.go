package calculator

import "MoexSentinel/internal/model"

const crossMinBars = 200

// previousSMAs returns SMA50 and SMA200 as of the bar before the last one.
func previousSMAs(series []model.Candle) (prev50, prev200 *float64) {
	if len(series) < crossMinBars {
		return nil, nil
	}
	closes := extractCloses(series[:len(series)-1])
	return SMA(closes, 50), SMA(closes, 200)
}

// GoldenCross reports SMA50 crossing SMA200 from below on the last bar.
func GoldenCross(series []model.Candle, sma50, sma200 *float64) bool {
	if sma50 == nil || sma200 == nil {
		return false
	}
	prev50, prev200 := previousSMAs(series)
	if prev50 == nil || prev200 == nil {
		return false
	}
	return *prev50 < *prev200 && *sma50 > *sma200
}

// DeathCross reports SMA50 crossing SMA200 from above on the last bar.
func DeathCross(series []model.Candle, sma50, sma200 *float64) bool {
	if sma50 == nil || sma200 == nil {
		return false
	}
	prev50, prev200 := previousSMAs(series)
	if prev50 == nil || prev200 == nil {
		return false
	}
	return *prev50 > *prev200 && *sma50 < *sma200
}
