package strategy

import (
	"testing"

	"MoexSentinel/internal/model"
)

func TestRank_Order(t *testing.T) {
	recs := []model.Recommendation{
		{Symbol: "S1", Action: model.ActionSell, Score: -2.5},
		{Symbol: "H1", Action: model.ActionHold, Score: 0.5},
		{Symbol: "B1", Action: model.ActionBuy, Score: 2.1},
		{Symbol: "ERR", Error: "fetch failed"},
		{Symbol: "S2", Action: model.ActionSell, Score: -4.0},
		{Symbol: "B2", Action: model.ActionBuy, Score: 3.4},
	}
	ranked := Rank(recs)

	want := []string{"B2", "B1", "H1", "S2", "S1", "ERR"}
	for i, sym := range want {
		if ranked[i].Symbol != sym {
			t.Fatalf("position %d: expected %s, got %s", i, sym, ranked[i].Symbol)
		}
	}
	if recs[0].Symbol != "S1" {
		t.Error("Rank must not reorder its input")
	}
}

func TestSummarize(t *testing.T) {
	ranked := Rank([]model.Recommendation{
		{Symbol: "B1", Action: model.ActionBuy, Score: 2.1},
		{Symbol: "B2", Action: model.ActionBuy, Score: 3.0},
		{Symbol: "B3", Action: model.ActionBuy, Score: 2.5},
		{Symbol: "B4", Action: model.ActionBuy, Score: 2.2},
		{Symbol: "H1", Action: model.ActionHold},
		{Symbol: "S1", Action: model.ActionSell, Score: -2.0},
		{Symbol: "X", Error: "no price"},
	})
	s := Summarize(ranked)

	if s.Total != 7 || s.Buy != 4 || s.Hold != 1 || s.Sell != 1 || s.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if len(s.TopBuys) != 3 || s.TopBuys[0].Symbol != "B2" || s.TopBuys[2].Symbol != "B4" {
		t.Errorf("unexpected top buys: %+v", s.TopBuys)
	}
	if len(s.TopSells) != 1 || s.TopSells[0].Symbol != "S1" {
		t.Errorf("unexpected top sells: %+v", s.TopSells)
	}
}
