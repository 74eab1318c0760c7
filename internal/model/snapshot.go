package model

import "time"

// SignalFlag is a discrete technical signal.
type SignalFlag string

const (
	SignalPriceBelowSMA200 SignalFlag = "PRICE_BELOW_SMA200"
	SignalPriceAboveSMA200 SignalFlag = "PRICE_ABOVE_SMA200"
	SignalGoldenCross      SignalFlag = "SMA50_CROSS_UP_SMA200"
	SignalDeathCross       SignalFlag = "SMA50_CROSS_DOWN_SMA200"
	SignalDYAboveTarget    SignalFlag = "DY_GT_TARGET"
	SignalVolumeSpike      SignalFlag = "VOL_SPIKE"
	SignalNear52wLow       SignalFlag = "NEAR_52W_LOW"
	SignalNear52wHigh      SignalFlag = "NEAR_52W_HIGH"
)

// Range52w holds the trailing-year range. All fields are nil when there is not enough history.
type Range52w struct {
	High           *float64 `json:"high_52w"`
	Low            *float64 `json:"low_52w"`
	DistFromLowPct *float64 `json:"dist_52w_low_pct"`
	DistToHighPct  *float64 `json:"dist_52w_high_pct"`
}

// InstrumentSnapshot holds all computed metrics for one instrument in one cycle.
// It is built once by calculator.ComputeSnapshot and treated as read-only afterwards.
type InstrumentSnapshot struct {
	Symbol           string           `json:"symbol"`
	Price            float64          `json:"price"`
	Lot              int              `json:"lot"`
	Board            string           `json:"board"`
	SMA              map[int]*float64 `json:"sma"`
	DividendTTM      float64          `json:"div_ttm"`
	DividendYieldPct *float64         `json:"dy_pct"`
	Range52w         Range52w         `json:"range_52w"`
	TrendPct20d      *float64         `json:"trend_pct_20d"`
	Signals          []SignalFlag     `json:"signals"`
	AsOf             time.Time        `json:"as_of"`
}

// SMAValue returns the SMA for the given window, or nil.
func (s *InstrumentSnapshot) SMAValue(window int) *float64 {
	if s.SMA == nil {
		return nil
	}
	return s.SMA[window]
}

// HasSignal reports whether the flag is present.
func (s *InstrumentSnapshot) HasSignal(flag SignalFlag) bool {
	for _, f := range s.Signals {
		if f == flag {
			return true
		}
	}
	return false
}

// Float returns a pointer to v. Used for nullable metrics.
func Float(v float64) *float64 { return &v }
