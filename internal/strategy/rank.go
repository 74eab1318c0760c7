package strategy

import (
	"sort"

	"MoexSentinel/internal/model"
)

const summaryTopN = 3

var actionOrder = map[model.Action]int{
	model.ActionBuy:  0,
	model.ActionHold: 1,
	model.ActionSell: 2,
}

// Rank returns a copy ordered BUY by score descending, then HOLD, then SELL by score ascending.
// Recommendations carrying an error go last.
func Rank(recs []model.Recommendation) []model.Recommendation {
	out := append([]model.Recommendation(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Error != "") != (b.Error != "") {
			return a.Error == ""
		}
		if a.Action != b.Action {
			return actionOrder[a.Action] < actionOrder[b.Action]
		}
		switch a.Action {
		case model.ActionBuy, model.ActionHold:
			return a.Score > b.Score
		case model.ActionSell:
			return a.Score < b.Score
		}
		return false
	})
	return out
}

// Summarize counts actions and picks the top buys and sells from a ranked list.
func Summarize(ranked []model.Recommendation) model.Summary {
	s := model.Summary{Total: len(ranked)}
	for _, r := range ranked {
		if r.Error != "" {
			s.Failed++
			continue
		}
		switch r.Action {
		case model.ActionBuy:
			s.Buy++
			if len(s.TopBuys) < summaryTopN {
				s.TopBuys = append(s.TopBuys, r)
			}
		case model.ActionHold:
			s.Hold++
		case model.ActionSell:
			s.Sell++
			if len(s.TopSells) < summaryTopN {
				s.TopSells = append(s.TopSells, r)
			}
		}
	}
	return s
}
