package model

import (
	"errors"
	"time"
)

// Candle represents a single OHLCV bar.
type Candle struct {
	Begin  time.Time `json:"begin"`
	End    time.Time `json:"end"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

var (
	ErrCandleRange    = errors.New("candle high is below low")
	ErrCandleNegative = errors.New("candle has negative values")
)

// Validate checks the bar invariants: high >= low and no negative values.
func (c Candle) Validate() error {
	if c.High < c.Low {
		return ErrCandleRange
	}
	if c.Open < 0 || c.High < 0 || c.Low < 0 || c.Close < 0 || c.Volume < 0 {
		return ErrCandleNegative
	}
	return nil
}

// Quote is the latest trading information for an instrument.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Lot    int     `json:"lot"`
	Board  string  `json:"board"`
}

// InstrumentData bundles everything the market-data client returns for one symbol.
type InstrumentData struct {
	Quote       Quote
	DividendTTM float64
	Candles     []Candle // ascending by Begin
	FetchedAt   time.Time
}
