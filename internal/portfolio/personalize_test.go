package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoexSentinel/internal/model"
)

func rec(symbol string, action model.Action, price float64, hint model.SizingHint) model.Recommendation {
	return model.Recommendation{Symbol: symbol, Action: action, Price: price, SizingHint: hint}
}

func TestPersonalize_Buy(t *testing.T) {
	// total 100000, base 5% = 5000, so 5000/270, 7500/270 and 10000/270 shares
	p := model.Portfolio{Cash: 60000, Positions: []model.Position{{Symbol: "GAZP", Quantity: 100, CurrentValue: 40000}}}

	tests := []struct {
		name string
		hint model.SizingHint
		qty  int64
	}{
		{"base", model.SizeBase, 18},
		{"one and half", model.SizeBaseOneAndHalf, 27},
		{"double", model.SizeBaseDouble, 37},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Personalize([]model.Recommendation{rec("SBER", model.ActionBuy, 270, tt.hint)}, p, 5)
			require.Len(t, out, 1)
			assert.Equal(t, tt.qty, out[0].QtySuggested)
			assert.InDelta(t, -float64(tt.qty)*270, out[0].CashImpact, 1e-9)
		})
	}
}

func TestPersonalize_BuyCappedByCash(t *testing.T) {
	p := model.Portfolio{Cash: 1000, Positions: []model.Position{{Symbol: "GAZP", Quantity: 100, CurrentValue: 99000}}}
	out := Personalize([]model.Recommendation{
		rec("SBER", model.ActionBuy, 300, model.SizeBaseDouble),
		rec("LKOH", model.ActionBuy, 300, model.SizeBase),
	}, p, 5)

	require.Len(t, out, 2)
	assert.Equal(t, int64(3), out[0].QtySuggested)
	assert.InDelta(t, -900.0, out[0].CashImpact, 1e-9)
	assert.Zero(t, out[1].QtySuggested, "remaining cash of 100 buys nothing")

	spent := 0.0
	for _, a := range out {
		spent -= a.CashImpact
	}
	assert.LessOrEqual(t, spent, p.Cash)
}

func TestPersonalize_Sell(t *testing.T) {
	p := model.Portfolio{Cash: 0, Positions: []model.Position{
		{Symbol: "SBER", Quantity: 10, CurrentValue: 3000},
		{Symbol: "VTBR", Quantity: 3, CurrentValue: 300},
	}}
	tests := []struct {
		name   string
		symbol string
		hint   model.SizingHint
		qty    int64
	}{
		{"close", "SBER", model.SizeCloseFully, 10},
		{"half", "SBER", model.SizeReduceHalf, 5},
		{"quarter", "SBER", model.SizeReduceQuarter, 2},
		{"quarter of small holding sells one", "VTBR", model.SizeReduceQuarter, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Personalize([]model.Recommendation{rec(tt.symbol, model.ActionSell, 100, tt.hint)}, p, 5)
			require.Len(t, out, 1)
			assert.Equal(t, tt.qty, out[0].QtySuggested)
			assert.InDelta(t, float64(tt.qty)*100, out[0].CashImpact, 1e-9)
			assert.LessOrEqual(t, out[0].QtySuggested, p.Position(tt.symbol).Quantity)
		})
	}
}

func TestPersonalize_PassThroughAndSkip(t *testing.T) {
	p := model.Portfolio{Cash: 10000}
	out := Personalize([]model.Recommendation{
		rec("HOLD1", model.ActionHold, 100, model.SizeNone),
		rec("SELLNOPOS", model.ActionSell, 100, model.SizeReduceHalf),
		rec("NOPRICE", model.ActionBuy, 0, model.SizeBase),
		{Symbol: "ERR", Error: "fetch failed"},
	}, p, 5)

	require.Len(t, out, 2)
	assert.Equal(t, "HOLD1", out[0].Symbol)
	assert.Zero(t, out[0].QtySuggested)
	assert.Equal(t, "SELLNOPOS", out[1].Symbol)
	assert.Zero(t, out[1].QtySuggested)
	assert.Zero(t, out[1].CashImpact)
}

func TestLoadSavePortfolio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "portfolio.json")

	p, err := LoadPortfolio(path)
	require.NoError(t, err)
	assert.Zero(t, p.Cash)
	assert.Empty(t, p.Positions)

	p.Cash = 1234.5
	p.Positions = []model.Position{{Symbol: "SBER", Quantity: 20, CurrentValue: 5400}}
	require.NoError(t, SavePortfolio(path, p))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"qty": 20`)

	got, err := LoadPortfolio(path)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, got.Cash)
	assert.Equal(t, int64(20), got.Position("SBER").Quantity)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	_, err = LoadPortfolio(path)
	assert.Error(t, err)
}

func TestStore_MarkToMarket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, SavePortfolio(path, &model.Portfolio{
		Cash:      500,
		Positions: []model.Position{{Symbol: "SBER", Quantity: 20, CurrentValue: 5000}, {Symbol: "GAZP", Quantity: 10, CurrentValue: 1500}},
	}))

	s, err := NewStore(path, zerolog.Nop())
	require.NoError(t, err)

	p := s.MarkToMarket(map[string]float64{"SBER": 270.15})
	assert.InDelta(t, 5403.0, p.Position("SBER").CurrentValue, 1e-9)
	assert.InDelta(t, 1500.0, p.Position("GAZP").CurrentValue, 1e-9)

	reloaded, err := LoadPortfolio(path)
	require.NoError(t, err)
	assert.InDelta(t, 5403.0, reloaded.Position("SBER").CurrentValue, 1e-9)

	snap := s.Snapshot()
	snap.Positions[0].Quantity = 0
	assert.Equal(t, int64(20), s.Snapshot().Positions[0].Quantity, "snapshot is a copy")
}
