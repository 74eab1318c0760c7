package model

import "fmt"

// Action is the recommended trade direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// Confidence is a coarse confidence bucket.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// SizingHint is qualitative guidance on trade size relative to the base allocation.
type SizingHint int

const (
	SizeNone SizingHint = iota
	SizeBase
	SizeBaseOneAndHalf
	SizeBaseDouble
	SizeReduceQuarter
	SizeReduceHalf
	SizeCloseFully
)

var sizingLabels = map[SizingHint]string{
	SizeNone:           "",
	SizeBase:           "1x base",
	SizeBaseOneAndHalf: "1.5x base",
	SizeBaseDouble:     "2x base",
	SizeReduceQuarter:  "reduce 25%",
	SizeReduceHalf:     "reduce 50%",
	SizeCloseFully:     "close fully",
}

func (h SizingHint) String() string { return sizingLabels[h] }

// MarshalText renders the hint as its label so reports stay readable.
func (h SizingHint) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *SizingHint) UnmarshalText(text []byte) error {
	for hint, label := range sizingLabels {
		if label == string(text) {
			*h = hint
			return nil
		}
	}
	return fmt.Errorf("unknown sizing hint %q", text)
}

// BuyMultiplier returns the base-allocation multiplier for buy hints, 0 otherwise.
func (h SizingHint) BuyMultiplier() float64 {
	switch h {
	case SizeBase:
		return 1.0
	case SizeBaseOneAndHalf:
		return 1.5
	case SizeBaseDouble:
		return 2.0
	}
	return 0
}

// SellFraction returns the fraction of the holding to sell for sell hints, 0 otherwise.
func (h SizingHint) SellFraction() float64 {
	switch h {
	case SizeCloseFully:
		return 1.0
	case SizeReduceHalf:
		return 0.5
	case SizeReduceQuarter:
		return 0.25
	}
	return 0
}

// FactorScore is one scoring factor's contribution.
type FactorScore struct {
	Name       string  `json:"name"`
	Weight     float64 `json:"weight"`
	Confidence float64 `json:"confidence"`
	Commentary string  `json:"commentary"`
}

// Recommendation is the scoring engine's verdict for one instrument.
type Recommendation struct {
	Symbol     string              `json:"symbol"`
	Price      float64             `json:"price"`
	Action     Action              `json:"action"`
	Score      float64             `json:"score"`
	Reasons    []string            `json:"reasons"`
	Factors    []FactorScore       `json:"factors,omitempty"`
	SizingHint SizingHint          `json:"sizing_hint"`
	Confidence Confidence          `json:"confidence"`
	Metrics    *InstrumentSnapshot `json:"metrics,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Summary condenses a ranked recommendation list.
type Summary struct {
	Total    int              `json:"total"`
	Buy      int              `json:"buy"`
	Hold     int              `json:"hold"`
	Sell     int              `json:"sell"`
	Failed   int              `json:"failed"`
	TopBuys  []Recommendation `json:"top_buys"`
	TopSells []Recommendation `json:"top_sells"`
}
