package strategy

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

func snapshot(price, sma200, dy, trend float64) *model.InstrumentSnapshot {
	return &model.InstrumentSnapshot{
		Symbol:           "SBER",
		Price:            price,
		SMA:              map[int]*float64{200: model.Float(sma200)},
		DividendYieldPct: model.Float(dy),
		TrendPct20d:      model.Float(trend),
	}
}

func scoringCfg() *config.ScoringConfig {
	cfg := config.DefaultScoring()
	return &cfg
}

func TestScore_DividendTrendScenario(t *testing.T) {
	snap := snapshot(270, 280, 9.5, 1.2)
	rec := Score(snap, scoringCfg(), nil)

	if math.Abs(rec.Score-2.3) > 1e-9 {
		t.Fatalf("expected score 2.3, got %.4f", rec.Score)
	}
	if rec.Action != model.ActionBuy {
		t.Errorf("expected BUY, got %s", rec.Action)
	}
	if rec.SizingHint != model.SizeBase {
		t.Errorf("expected 1x base, got %q", rec.SizingHint)
	}
	// dy (1) + uptrend (1); the neutral SMA200 band adds nothing
	if rec.Confidence != model.ConfidenceMedium {
		t.Errorf("expected MEDIUM confidence, got %s", rec.Confidence)
	}
	if len(rec.Reasons) != 3 {
		t.Fatalf("expected 3 reasons, got %d: %v", len(rec.Reasons), rec.Reasons)
	}
	if !strings.HasPrefix(rec.Reasons[1], "○") {
		t.Errorf("SMA200 reason should be neutral at -3.6%%, got %q", rec.Reasons[1])
	}
}

func TestScore_Pure(t *testing.T) {
	snap := snapshot(200, 280, 16, -2)
	snap.Signals = []model.SignalFlag{model.SignalPriceBelowSMA200, model.SignalVolumeSpike}
	ev := &model.EventSignal{Level: model.EventMediumProbability}
	cfg := scoringCfg()

	a := Score(snap, cfg, ev)
	b := Score(snap, cfg, ev)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("score is not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestDecide_Boundaries(t *testing.T) {
	cfg := scoringCfg()
	tests := []struct {
		score  float64
		action model.Action
	}{
		{2.0, model.ActionBuy},
		{2.01, model.ActionBuy},
		{1.99, model.ActionHold},
		{0, model.ActionHold},
		{-1.99, model.ActionHold},
		{-2.0, model.ActionSell},
		{-3.5, model.ActionSell},
	}
	for _, tt := range tests {
		if got := decide(tt.score, cfg); got != tt.action {
			t.Errorf("score %.2f: expected %s, got %s", tt.score, tt.action, got)
		}
	}
}

func TestScore_ExactCutoffFromFactors(t *testing.T) {
	cfg := scoringCfg()
	cfg.TrendWeight = 0.5

	// dy 8 (+1.5) and trend 0.5 (+0.5) = 2.0
	rec := Score(snapshot(270, 280, 8, 0.5), cfg, nil)
	if rec.Action != model.ActionBuy {
		t.Errorf("score at cutoff should BUY, got %s (%.2f)", rec.Action, rec.Score)
	}

	// dy 3 (-0.5), d=+15% (-1.0), trend -0.5 (-0.5) = -2.0
	rec = Score(snapshot(115, 100, 3, -0.5), cfg, nil)
	if rec.Action != model.ActionSell {
		t.Errorf("score at cutoff should SELL, got %s (%.2f)", rec.Action, rec.Score)
	}
}

func TestScore_DividendLadder(t *testing.T) {
	tests := []struct {
		dy    float64
		score float64
	}{
		{15, 2.0},
		{8, 1.5},
		{5, 0},
		{3.99, -0.5},
	}
	for _, tt := range tests {
		snap := &model.InstrumentSnapshot{Price: 100, DividendYieldPct: model.Float(tt.dy)}
		rec := Score(snap, scoringCfg(), nil)
		if math.Abs(rec.Score-tt.score) > 1e-9 {
			t.Errorf("dy %.2f: expected %.2f, got %.2f", tt.dy, tt.score, rec.Score)
		}
	}
}

func TestScore_SMA200Bands(t *testing.T) {
	tests := []struct {
		price float64
		score float64
	}{
		{90, 1.0},   // exactly -10%
		{95, 0},     // inside the band
		{110, -1.0}, // exactly +10%
	}
	for _, tt := range tests {
		snap := &model.InstrumentSnapshot{Price: tt.price, SMA: map[int]*float64{200: model.Float(100)}}
		rec := Score(snap, scoringCfg(), nil)
		if math.Abs(rec.Score-tt.score) > 1e-9 {
			t.Errorf("price %.0f: expected %.1f, got %.2f", tt.price, tt.score, rec.Score)
		}
	}
}

func TestScore_EventSignal(t *testing.T) {
	base := &model.InstrumentSnapshot{Price: 100}

	rec := Score(base, scoringCfg(), &model.EventSignal{Level: model.EventHighProbability})
	if rec.Score != 1.0 {
		t.Errorf("HIGH_PROBABILITY should add 1.0, got %.2f", rec.Score)
	}
	if len(rec.Reasons) == 0 || !strings.Contains(rec.Reasons[0], "event signal") {
		t.Errorf("event reason should come first, got %v", rec.Reasons)
	}

	rec = Score(base, scoringCfg(), &model.EventSignal{Level: model.EventNegativeSignal})
	if rec.Score != -1.0 {
		t.Errorf("NEGATIVE_SIGNAL should add -1.0, got %.2f", rec.Score)
	}

	rec = Score(base, scoringCfg(), &model.EventSignal{Level: model.EventLow})
	if len(rec.Factors) != 0 {
		t.Errorf("LOW is not in the weight table, got factors %v", rec.Factors)
	}

	cfg := scoringCfg()
	cfg.EventSignalEnabled = false
	rec = Score(base, cfg, &model.EventSignal{Level: model.EventHighProbability})
	if rec.Score != 0 {
		t.Errorf("disabled event factor should not score, got %.2f", rec.Score)
	}
}

func TestScore_EventConfidence(t *testing.T) {
	snap := &model.InstrumentSnapshot{Price: 100, DividendYieldPct: model.Float(5)}

	// moderate dy (0) + MEDIUM (0.5) = 0.5
	rec := Score(snap, scoringCfg(), &model.EventSignal{Level: model.EventMediumProbability})
	if rec.Confidence != model.ConfidenceLow {
		t.Errorf("expected LOW, got %s", rec.Confidence)
	}
	rec = Score(snap, scoringCfg(), nil)
	if rec.Confidence != model.ConfidenceLow {
		t.Errorf("expected LOW, got %s", rec.Confidence)
	}
}

func TestScore_ConfidenceCountsOnlyScoringFactors(t *testing.T) {
	neutral := func() *model.InstrumentSnapshot {
		snap := snapshot(150, 150, 5, 0)
		snap.Range52w = model.Range52w{High: model.Float(200), Low: model.Float(100)}
		return snap
	}

	tests := []struct {
		name  string
		snap  *model.InstrumentSnapshot
		ev    *model.EventSignal
		score float64
		want  model.Confidence
	}{
		{"nothing contributes", neutral(), nil, 0, model.ConfidenceLow},
		{"low dy penalty", snapshot(150, 150, 1, 0), nil, -0.5, model.ConfidenceLow},
		{"very high dy", snapshot(150, 150, 16, 0), nil, 2.0, model.ConfidenceMedium},
		{"very high dy and HIGH event", snapshot(150, 150, 16, 0), &model.EventSignal{Level: model.EventHighProbability}, 3.0, model.ConfidenceHigh},
		{"bands and trend", snapshot(80, 100, 5, -1), nil, 0.2, model.ConfidenceMedium},
	}
	for _, tt := range tests {
		rec := Score(tt.snap, scoringCfg(), tt.ev)
		if math.Abs(rec.Score-tt.score) > 1e-9 {
			t.Errorf("%s: expected score %.2f, got %.2f", tt.name, tt.score, rec.Score)
		}
		if rec.Confidence != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, rec.Confidence)
		}
	}
}

func TestScore_Flags(t *testing.T) {
	snap := &model.InstrumentSnapshot{
		Price: 100,
		Signals: []model.SignalFlag{
			model.SignalPriceBelowSMA200,
			model.SignalGoldenCross,
			model.SignalDeathCross,
			model.SignalVolumeSpike,
		},
	}
	rec := Score(snap, scoringCfg(), nil)
	if math.Abs(rec.Score-0.3) > 1e-9 {
		t.Errorf("expected +0.3+0.3-0.3 = 0.3, got %.2f", rec.Score)
	}
	if len(rec.Factors) != 3 {
		t.Errorf("VOL_SPIKE should not contribute, got %d factors", len(rec.Factors))
	}
}

func TestScore_52WeekPosition(t *testing.T) {
	tests := []struct {
		price float64
		score float64
	}{
		{110, 0.5},  // 10% of range
		{150, 0},    // middle
		{195, -0.5}, // 95% of range
	}
	for _, tt := range tests {
		snap := &model.InstrumentSnapshot{
			Price:    tt.price,
			Range52w: model.Range52w{High: model.Float(200), Low: model.Float(100)},
		}
		rec := Score(snap, scoringCfg(), nil)
		if math.Abs(rec.Score-tt.score) > 1e-9 {
			t.Errorf("price %.0f: expected %.1f, got %.2f", tt.price, tt.score, rec.Score)
		}
	}
}

func TestScore_AlwaysFinite(t *testing.T) {
	snap := &model.InstrumentSnapshot{
		Price:            math.NaN(),
		SMA:              map[int]*float64{200: model.Float(0)},
		DividendYieldPct: model.Float(math.Inf(1)),
		TrendPct20d:      model.Float(math.NaN()),
	}
	rec := Score(snap, scoringCfg(), nil)
	if math.IsNaN(rec.Score) || math.IsInf(rec.Score, 0) {
		t.Fatalf("score must be finite, got %v", rec.Score)
	}
	if rec.Action != model.ActionHold {
		t.Errorf("expected HOLD with no usable data, got %s", rec.Action)
	}
}

func TestSizingHint(t *testing.T) {
	cfg := &scoringCfg().Sizing
	tests := []struct {
		name   string
		action model.Action
		score  float64
		snap   *model.InstrumentSnapshot
		hint   model.SizingHint
	}{
		{"strong buy", model.ActionBuy, 4.0, snapshot(270, 280, 9, 1), model.SizeBaseDouble},
		{"deep value", model.ActionBuy, 3.0, snapshot(250, 280, 12, 1), model.SizeBaseOneAndHalf},
		{"deep discount low dy", model.ActionBuy, 3.0, snapshot(250, 280, 11.9, 1), model.SizeBase},
		{"plain buy", model.ActionBuy, 2.0, snapshot(270, 280, 12, 1), model.SizeBase},
		{"close", model.ActionSell, -4.0, snapshot(300, 280, 1, -1), model.SizeCloseFully},
		{"half", model.ActionSell, -3.0, snapshot(300, 280, 1, -1), model.SizeReduceHalf},
		{"quarter", model.ActionSell, -2.5, snapshot(300, 280, 1, -1), model.SizeReduceQuarter},
		{"hold", model.ActionHold, 0, snapshot(280, 280, 5, 0), model.SizeNone},
	}
	for _, tt := range tests {
		if got := sizingHint(tt.action, tt.score, tt.snap, cfg); got != tt.hint {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.hint, got)
		}
	}
}

func TestMapConfidence_Boundaries(t *testing.T) {
	tests := []struct {
		sum  float64
		want model.Confidence
	}{
		{3.0, model.ConfidenceHigh},
		{2.99, model.ConfidenceMedium},
		{1.5, model.ConfidenceMedium},
		{1.49, model.ConfidenceLow},
		{0, model.ConfidenceLow},
	}
	for _, tt := range tests {
		if got := mapConfidence(tt.sum); got != tt.want {
			t.Errorf("sum %.2f: expected %s, got %s", tt.sum, tt.want, got)
		}
	}
}
