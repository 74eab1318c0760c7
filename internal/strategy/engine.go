package strategy

import (
	"math"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

// Confidence bucket cutoffs.
const (
	confidenceHighMin   = 3.0
	confidenceMediumMin = 1.5
)

// Score evaluates one snapshot against the scoring config and an optional event signal.
// It is pure: identical inputs always yield an identical Recommendation.
func Score(snap *model.InstrumentSnapshot, cfg *config.ScoringConfig, ev *model.EventSignal) model.Recommendation {
	var factors []model.FactorScore
	factors = append(factors, scoreEventSignal(ev, cfg)...)
	factors = append(factors, scoreDividendYield(snap, cfg)...)
	factors = append(factors, scoreSMA200(snap, cfg)...)
	factors = append(factors, scoreTrend(snap, cfg)...)
	factors = append(factors, score52WeekPosition(snap, cfg)...)
	factors = append(factors, scoreFlags(snap, cfg)...)

	total, conf := 0.0, 0.0
	reasons := make([]string, 0, len(factors))
	for _, f := range factors {
		if !isFinite(f.Weight) {
			continue
		}
		total += f.Weight
		conf += f.Confidence
		reasons = append(reasons, f.Commentary)
	}
	if !isFinite(total) {
		total = 0
	}

	action := decide(total, cfg)
	return model.Recommendation{
		Symbol:     snap.Symbol,
		Price:      snap.Price,
		Action:     action,
		Score:      math.Round(total*100) / 100,
		Reasons:    reasons,
		Factors:    factors,
		SizingHint: sizingHint(action, total, snap, &cfg.Sizing),
		Confidence: mapConfidence(conf),
		Metrics:    snap,
	}
}

// decide maps a total score to an action. Cutoffs are inclusive.
func decide(total float64, cfg *config.ScoringConfig) model.Action {
	switch {
	case total >= cfg.BuyScoreCutoff:
		return model.ActionBuy
	case total <= cfg.SellScoreCutoff:
		return model.ActionSell
	}
	return model.ActionHold
}

func mapConfidence(sum float64) model.Confidence {
	switch {
	case sum >= confidenceHighMin:
		return model.ConfidenceHigh
	case sum >= confidenceMediumMin:
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}
