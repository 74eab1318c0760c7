package strategy

import (
	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

// sizingHint picks the trade size relative to the base allocation.
func sizingHint(action model.Action, total float64, snap *model.InstrumentSnapshot, cfg *config.SizingConfig) model.SizingHint {
	switch action {
	case model.ActionBuy:
		if total >= cfg.DoubleScore {
			return model.SizeBaseDouble
		}
		if deepValue(snap, cfg) {
			return model.SizeBaseOneAndHalf
		}
		return model.SizeBase
	case model.ActionSell:
		switch {
		case total <= cfg.CloseFullyScore:
			return model.SizeCloseFully
		case total <= cfg.ReduceHalfScore:
			return model.SizeReduceHalf
		}
		return model.SizeReduceQuarter
	}
	return model.SizeNone
}

// deepValue reports a price well under SMA200 combined with a high dividend yield.
func deepValue(snap *model.InstrumentSnapshot, cfg *config.SizingConfig) bool {
	sma200 := snap.SMAValue(200)
	dy := snap.DividendYieldPct
	if sma200 == nil || dy == nil {
		return false
	}
	return snap.Price < cfg.OneAndHalfDiscount*(*sma200) && *dy >= cfg.OneAndHalfDY
}
