package portfolio

import (
	"github.com/shopspring/decimal"

	"MoexSentinel/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Personalize sizes recommendations against the portfolio.
//
// Each BUY gets base × hint multiplier of the total portfolio value, capped
// by the cash still unspent by earlier BUYs in recs order. Each SELL of a
// held symbol gets the hint's fraction of the holding, at least one share.
// Items without a positive price are dropped; HOLDs and trades that round to
// zero pass through with no quantity.
func Personalize(recs []model.Recommendation, p model.Portfolio, baseAllocationPct float64) []model.PersonalizedAction {
	total := decimal.NewFromFloat(p.TotalValue())
	base := total.Mul(decimal.NewFromFloat(baseAllocationPct)).Div(hundred)
	cash := decimal.Max(decimal.NewFromFloat(p.Cash), decimal.Zero)

	out := make([]model.PersonalizedAction, 0, len(recs))
	for _, rec := range recs {
		if rec.Error != "" || !(rec.Price > 0) {
			continue
		}
		pos := p.Position(rec.Symbol)
		action := model.PersonalizedAction{
			Recommendation:  rec,
			CurrentPosition: pos.Quantity,
			CurrentValue:    decimal.NewFromFloat(pos.CurrentValue).Round(2).InexactFloat64(),
		}
		price := decimal.NewFromFloat(rec.Price)

		switch rec.Action {
		case model.ActionBuy:
			budget := decimal.Min(base.Mul(decimal.NewFromFloat(rec.SizingHint.BuyMultiplier())), cash)
			qty := budget.Div(price).Floor()
			if qty.IsPositive() {
				cost := qty.Mul(price)
				cash = cash.Sub(cost)
				action.QtySuggested = qty.IntPart()
				action.CashImpact = cost.Neg().Round(2).InexactFloat64()
			}
		case model.ActionSell:
			if pos.Quantity <= 0 {
				break
			}
			qty := sellQuantity(pos.Quantity, rec.SizingHint)
			action.QtySuggested = qty
			action.CashImpact = decimal.NewFromInt(qty).Mul(price).Round(2).InexactFloat64()
		}
		out = append(out, action)
	}
	return out
}

func sellQuantity(holding int64, hint model.SizingHint) int64 {
	frac := hint.SellFraction()
	if frac >= 1 {
		return holding
	}
	if frac <= 0 {
		frac = model.SizeReduceQuarter.SellFraction()
	}
	qty := decimal.NewFromInt(holding).Mul(decimal.NewFromFloat(frac)).Floor().IntPart()
	return min(max(qty, 1), holding)
}
