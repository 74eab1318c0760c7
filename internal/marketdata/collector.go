package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MoexSentinel/internal/model"
)

var ErrNoPrice = errors.New("no usable price")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price       float64
	Lot         int
	DividendTTM float64
	Candles     []model.Candle
	Err         error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuote(_ context.Context, symbol string) (model.Quote, error) {
	if m.Err != nil {
		return model.Quote{}, m.Err
	}
	lot := m.Lot
	if lot == 0 {
		lot = 10
	}
	return model.Quote{Symbol: symbol, Price: m.Price, Lot: lot, Board: "TQBR"}, nil
}

func (m *MockFetcher) FetchDividendsTTM(context.Context, string) (float64, error) {
	return m.DividendTTM, nil
}

func (m *MockFetcher) FetchCandles(_ context.Context, _ string, from time.Time) ([]model.Candle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Candles != nil {
		return m.Candles, nil
	}
	days := int(time.Since(from).Hours() / 24)
	return GenerateMockCandles(m.Price, days), nil
}

// GenerateMockCandles builds count daily bars drifting up to basePrice.
func GenerateMockCandles(basePrice float64, count int) []model.Candle {
	bars := make([]model.Candle, count)
	start := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count+1)*0.001)
		day := start.AddDate(0, 0, -(count - 1 - i))
		bars[i] = model.Candle{
			Begin:  day,
			End:    day.Add(24*time.Hour - time.Second),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector gathers everything the signal computer needs for one instrument.
type Collector struct {
	Fetcher     Fetcher
	HistoryDays int
	log         zerolog.Logger
	now         func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, historyDays int, log zerolog.Logger) *Collector {
	return &Collector{Fetcher: fetcher, HistoryDays: historyDays, log: log, now: time.Now}
}

// Collect fetches the quote, candles and trailing dividends for symbol.
// Only a missing quote is fatal; missing candles or dividends degrade to
// empty history and zero dividends.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.InstrumentData, error) {
	log := c.log.With().Str("symbol", symbol).Logger()

	quote, err := c.Fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	if !(quote.Price > 0) {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoPrice)
	}

	raw, err := c.Fetcher.FetchCandles(ctx, symbol, c.now().AddDate(0, 0, -c.HistoryDays))
	if err != nil {
		log.Warn().Err(err).Msg("candles unavailable, continuing without history")
	}
	candles := make([]model.Candle, 0, len(raw))
	for _, bar := range raw {
		if err := bar.Validate(); err != nil {
			log.Warn().Err(err).Time("begin", bar.Begin).Msg("dropping invalid candle")
			continue
		}
		candles = append(candles, bar)
	}

	dividends, err := c.Fetcher.FetchDividendsTTM(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Msg("dividends unavailable, assuming none")
		dividends = 0
	}

	return &model.InstrumentData{
		Quote:       quote,
		DividendTTM: dividends,
		Candles:     candles,
		FetchedAt:   c.now(),
	}, nil
}
