package config

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/creasty/defaults"

	"MoexSentinel/internal/model"
)

// ScoringConfig holds every threshold and weight used by the scoring engine.
type ScoringConfig struct {
	DYBuyMin         float64 `yaml:"dy_buy_min" default:"8" validate:"gt=0"`
	DYVeryHigh       float64 `yaml:"dy_very_high" default:"15" validate:"gtfield=DYBuyMin"`
	DYWeight         float64 `yaml:"dy_weight" default:"1.5"`
	DYVeryHighWeight float64 `yaml:"dy_very_high_weight" default:"0.5"`
	DYLowPenalty     float64 `yaml:"dy_low_penalty" default:"0.5"`

	MaxDiscountVsSMA200 float64 `yaml:"max_discount_vs_sma200" default:"-10"`
	MinPremiumVsSMA200  float64 `yaml:"min_premium_vs_sma200" default:"10" validate:"gtfield=MaxDiscountVsSMA200"`
	SMA200Weight        float64 `yaml:"sma200_weight" default:"1.0"`

	TrendUpMin   float64 `yaml:"trend_up_min" default:"0.5"`
	TrendDownMax float64 `yaml:"trend_down_max" default:"-0.5" validate:"ltfield=TrendUpMin"`
	TrendWeight  float64 `yaml:"trend_weight" default:"0.8"`

	Near52wLowThreshold  float64 `yaml:"near_52w_low_threshold" default:"0.3" validate:"gte=0,lte=1"`
	Near52wHighThreshold float64 `yaml:"near_52w_high_threshold" default:"0.9" validate:"gtfield=Near52wLowThreshold,lte=1"`
	Range52wWeight       float64 `yaml:"range_52w_weight" default:"0.5"`

	FlagWeight float64 `yaml:"flag_weight" default:"0.3"`

	BuyScoreCutoff  float64 `yaml:"buy_score_cutoff" default:"2.0"`
	SellScoreCutoff float64 `yaml:"sell_score_cutoff" default:"-2.0" validate:"ltfield=BuyScoreCutoff"`

	EventSignalEnabled bool                         `yaml:"event_signal_enabled" default:"true"`
	EventWeights       map[model.EventLevel]float64 `yaml:"event_weights" default:"{\"HIGH_PROBABILITY\":1.0,\"MEDIUM_PROBABILITY\":0.5,\"NEGATIVE_SIGNAL\":-1.0}"`

	Sizing SizingConfig `yaml:"sizing"`
}

// SizingConfig holds the sizing-hint cutoffs.
type SizingConfig struct {
	DoubleScore        float64 `yaml:"double_score" default:"4.0"`
	OneAndHalfDiscount float64 `yaml:"one_and_half_discount" default:"0.9" validate:"gt=0"`
	OneAndHalfDY       float64 `yaml:"one_and_half_dy" default:"12"`
	CloseFullyScore    float64 `yaml:"close_fully_score" default:"-4.0"`
	ReduceHalfScore    float64 `yaml:"reduce_half_score" default:"-3.0" validate:"gtfield=CloseFullyScore"`
}

// DefaultScoring returns a ScoringConfig with all defaults applied.
func DefaultScoring() ScoringConfig {
	var sc ScoringConfig
	if err := defaults.Set(&sc); err != nil {
		panic(fmt.Sprintf("scoring defaults: %v", err))
	}
	return sc
}

// Validate checks field constraints, cross-field rules, and that every value is finite.
func (s *ScoringConfig) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: scoring: %v", ErrInvalid, err)
	}
	for level, w := range s.EventWeights {
		switch level {
		case model.EventLow, model.EventMediumProbability, model.EventHighProbability, model.EventNegativeSignal:
		default:
			return fmt.Errorf("%w: scoring.event_weights: unknown level %q", ErrInvalid, level)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: scoring.event_weights[%s] is not finite", ErrInvalid, level)
		}
	}
	return nil
}

// ScoringStore holds the active ScoringConfig and swaps it atomically on reload.
// Readers always see a complete config, never a partially updated one.
type ScoringStore struct {
	current atomic.Pointer[ScoringConfig]
}

// NewScoringStore creates a store seeded with cfg.
func NewScoringStore(cfg ScoringConfig) *ScoringStore {
	s := &ScoringStore{}
	s.current.Store(&cfg)
	return s
}

// Get returns the active config. Callers must not mutate it.
func (s *ScoringStore) Get() *ScoringConfig {
	return s.current.Load()
}

// Swap validates cfg and replaces the active config. On error the previous config stays active.
func (s *ScoringStore) Swap(cfg ScoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.current.Store(&cfg)
	return nil
}

// Reload re-reads the scoring section from path and swaps it in.
func (s *ScoringStore) Reload(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	return s.Swap(cfg.Scoring)
}
