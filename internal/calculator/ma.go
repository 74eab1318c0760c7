package calculator

import (
	"errors"
	"math"

	"MoexSentinel/internal/model"
)

var (
	ErrBadPeriod        = errors.New("period must be positive")
	ErrInsufficientData = errors.New("not enough data")
)

// CalculateSMA computes the simple moving average of the trailing period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrBadPeriod
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMA returns the trailing simple moving average of closes, or nil when it cannot be computed.
func SMA(closes []float64, window int) *float64 {
	v, err := CalculateSMA(closes, window)
	if err != nil || !finite(v) {
		return nil
	}
	return &v
}

// MovingAverages computes the SMA of closing prices for every window.
// Windows with fewer samples than required map to nil.
func MovingAverages(series []model.Candle, windows []int) map[int]*float64 {
	closes := extractCloses(series)
	out := make(map[int]*float64, len(windows))
	for _, w := range windows {
		out[w] = SMA(closes, w)
	}
	return out
}

func extractCloses(bars []model.Candle) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
