package calculator

import (
	"time"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

// Signals derives the ordered set of discrete technical flags.
// The price-vs-SMA200 flags use a plain inequality; the scoring engine applies its own percent bands.
// Crosses always use SMA50 and SMA200 of series, whatever windows sma holds.
func Signals(price float64, sma map[int]*float64, dyPct *float64, series []model.Candle, cfg config.SignalConfig) []model.SignalFlag {
	flags := []model.SignalFlag{}
	closes := extractCloses(series)
	cross50, cross200 := SMA(closes, 50), SMA(closes, 200)

	sma200 := sma[200]
	if sma200 == nil {
		sma200 = cross200
	}
	if sma200 != nil {
		switch {
		case price < *sma200:
			flags = append(flags, model.SignalPriceBelowSMA200)
		case price > *sma200:
			flags = append(flags, model.SignalPriceAboveSMA200)
		}
	}
	if GoldenCross(series, cross50, cross200) {
		flags = append(flags, model.SignalGoldenCross)
	}
	if DeathCross(series, cross50, cross200) {
		flags = append(flags, model.SignalDeathCross)
	}
	if dyPct != nil && *dyPct >= cfg.DividendTargetPct {
		flags = append(flags, model.SignalDYAboveTarget)
	}
	threshold := cfg.VolumeSpikeThreshold
	if threshold <= 0 {
		threshold = DefaultVolumeSpikeThreshold
	}
	if VolumeSpike(series, threshold) {
		flags = append(flags, model.SignalVolumeSpike)
	}
	return flags
}

// Trend20d returns the percent distance of price from the 20-bar SMA, or nil.
func Trend20d(series []model.Candle, price float64) *float64 {
	sma20 := SMA(extractCloses(series), 20)
	if sma20 == nil || *sma20 == 0 || !finite(price) {
		return nil
	}
	t := (price - *sma20) / *sma20 * 100
	return &t
}

// ComputeSnapshot builds the full metric set for one instrument.
func ComputeSnapshot(quote model.Quote, series []model.Candle, dividendTTM float64, cfg config.SignalConfig) model.InstrumentSnapshot {
	sma := MovingAverages(series, cfg.SMAWindows)
	// scoring and sizing read SMA200 even when it is not a configured window
	closes := extractCloses(series)
	for _, w := range []int{50, 200} {
		if _, ok := sma[w]; !ok {
			sma[w] = SMA(closes, w)
		}
	}
	dy := DividendYield(dividendTTM, quote.Price)

	return model.InstrumentSnapshot{
		Symbol:           quote.Symbol,
		Price:            quote.Price,
		Lot:              quote.Lot,
		Board:            quote.Board,
		SMA:              sma,
		DividendTTM:      dividendTTM,
		DividendYieldPct: dy,
		Range52w:         Range52w(series, quote.Price),
		TrendPct20d:      Trend20d(series, quote.Price),
		Signals:          Signals(quote.Price, sma, dy, series, cfg),
		AsOf:             time.Now(),
	}
}
