package strategy

import (
	"fmt"
	"math"

	"MoexSentinel/internal/calculator"
	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

// eventConfidence is the confidence an event level contributes when it scores.
var eventConfidence = map[model.EventLevel]float64{
	model.EventHighProbability:   1.0,
	model.EventNegativeSignal:    1.0,
	model.EventMediumProbability: 0.5,
}

// positiveFlags and negativeFlags classify technical flags. VOL_SPIKE is neutral.
var (
	positiveFlags = map[model.SignalFlag]bool{
		model.SignalPriceBelowSMA200: true,
		model.SignalGoldenCross:      true,
		model.SignalDYAboveTarget:    true,
		model.SignalNear52wLow:       true,
	}
	negativeFlags = map[model.SignalFlag]bool{
		model.SignalPriceAboveSMA200: true,
		model.SignalDeathCross:       true,
		model.SignalNear52wHigh:      true,
	}
)

func mark(weight float64) string {
	switch {
	case weight > 0:
		return "✓"
	case weight < 0:
		return "✗"
	}
	return "○"
}

func factor(name string, weight, confidence float64, format string, args ...any) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		Weight:     weight,
		Confidence: confidence,
		Commentary: mark(weight) + " " + fmt.Sprintf(format, args...),
	}
}

// scoreEventSignal applies the configured weight for the signal's level.
func scoreEventSignal(ev *model.EventSignal, cfg *config.ScoringConfig) []model.FactorScore {
	if ev == nil || !cfg.EventSignalEnabled {
		return nil
	}
	w, ok := cfg.EventWeights[ev.Level]
	if !ok || !isFinite(w) {
		return nil
	}
	return []model.FactorScore{
		factor("event_signal", w, eventConfidence[ev.Level], "event signal %s (%+.1f)", ev.Level, w),
	}
}

// scoreDividendYield rewards yields above the buy minimum and penalizes yields below half of it.
// Only the rewarding branches add confidence.
func scoreDividendYield(snap *model.InstrumentSnapshot, cfg *config.ScoringConfig) []model.FactorScore {
	if snap.DividendYieldPct == nil || !isFinite(*snap.DividendYieldPct) {
		return nil
	}
	dy := *snap.DividendYieldPct

	switch {
	case dy >= cfg.DYBuyMin:
		out := []model.FactorScore{
			factor("dividend_yield", cfg.DYWeight, 1, "dividend yield %.2f%% ≥ %.1f%%", dy, cfg.DYBuyMin),
		}
		if dy >= cfg.DYVeryHigh {
			out = append(out, factor("dividend_yield_very_high", cfg.DYVeryHighWeight, 1,
				"very high dividend yield %.2f%% ≥ %.1f%%", dy, cfg.DYVeryHigh))
		}
		return out
	case dy < cfg.DYBuyMin*0.5:
		return []model.FactorScore{
			factor("dividend_yield", -cfg.DYLowPenalty, 0, "low dividend yield %.2f%% < %.1f%%", dy, cfg.DYBuyMin*0.5),
		}
	default:
		return []model.FactorScore{
			factor("dividend_yield", 0, 0, "moderate dividend yield %.2f%%", dy),
		}
	}
}

// scoreSMA200 scores the percent distance of price from SMA200.
func scoreSMA200(snap *model.InstrumentSnapshot, cfg *config.ScoringConfig) []model.FactorScore {
	sma200 := snap.SMAValue(200)
	if sma200 == nil || *sma200 == 0 {
		return nil
	}
	d := (snap.Price - *sma200) / *sma200 * 100
	if !isFinite(d) {
		return nil
	}

	switch {
	case d <= cfg.MaxDiscountVsSMA200:
		return []model.FactorScore{factor("sma200", cfg.SMA200Weight, 1, "price %.1f%% below SMA200", -d)}
	case d >= cfg.MinPremiumVsSMA200:
		return []model.FactorScore{factor("sma200", -cfg.SMA200Weight, 1, "price %.1f%% above SMA200", d)}
	default:
		return []model.FactorScore{factor("sma200", 0, 0, "price near SMA200 (%+.1f%%)", d)}
	}
}

// scoreTrend scores the 20-day trend.
func scoreTrend(snap *model.InstrumentSnapshot, cfg *config.ScoringConfig) []model.FactorScore {
	if snap.TrendPct20d == nil || !isFinite(*snap.TrendPct20d) {
		return nil
	}
	tr := *snap.TrendPct20d

	switch {
	case tr >= cfg.TrendUpMin:
		return []model.FactorScore{factor("trend_20d", cfg.TrendWeight, 1, "uptrend %+.1f%% over 20 days", tr)}
	case tr <= cfg.TrendDownMax:
		return []model.FactorScore{factor("trend_20d", -cfg.TrendWeight, 1, "downtrend %+.1f%% over 20 days", tr)}
	default:
		return []model.FactorScore{factor("trend_20d", 0, 0, "flat trend %+.1f%% over 20 days", tr)}
	}
}

// score52WeekPosition scores where price sits inside the 52-week range.
func score52WeekPosition(snap *model.InstrumentSnapshot, cfg *config.ScoringConfig) []model.FactorScore {
	pos, ok := calculator.Position52w(snap.Range52w, snap.Price)
	if !ok {
		return nil
	}

	switch {
	case pos < cfg.Near52wLowThreshold:
		return []model.FactorScore{factor("range_52w", cfg.Range52wWeight, 0.5, "near 52-week low (%.0f%% of range)", pos*100)}
	case pos > cfg.Near52wHighThreshold:
		return []model.FactorScore{factor("range_52w", -cfg.Range52wWeight, 0.5, "near 52-week high (%.0f%% of range)", pos*100)}
	default:
		return []model.FactorScore{factor("range_52w", 0, 0, "mid 52-week range (%.0f%%)", pos*100)}
	}
}

// scoreFlags adds a fixed weight per classified technical flag.
func scoreFlags(snap *model.InstrumentSnapshot, cfg *config.ScoringConfig) []model.FactorScore {
	var out []model.FactorScore
	w := cfg.FlagWeight
	for _, f := range snap.Signals {
		switch {
		case positiveFlags[f]:
			out = append(out, factor("flag", w, math.Abs(w), "signal %s", f))
		case negativeFlags[f]:
			out = append(out, factor("flag", -w, math.Abs(w), "signal %s", f))
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
