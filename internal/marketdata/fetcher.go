package marketdata

import (
	"context"
	"time"

	"MoexSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
	FetchDividendsTTM(ctx context.Context, symbol string) (float64, error)
	FetchCandles(ctx context.Context, symbol string, from time.Time) ([]model.Candle, error)
	Name() string
}
