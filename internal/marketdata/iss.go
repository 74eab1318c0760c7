package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

const (
	issTimeLayout  = "2006-01-02 15:04:05"
	issDateLayout  = "2006-01-02"
	issMaxAttempts = 3
	issMaxPages    = 10
	issPageSize    = 500
	quoteLookback  = 14
	dividendWindow = 365 * 24 * time.Hour
)

var moscow = loadLocation("Europe/Moscow")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// errRetryable marks transport failures and 5xx answers.
var errRetryable = errors.New("retryable ISS failure")

// ISSClient implements Fetcher against the MOEX Informational & Statistical Server.
type ISSClient struct {
	Client  *http.Client
	BaseURL string
	Board   string
	Lot     int

	limiter *rate.Limiter
	backoff time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewISSClient creates an ISS client with optional proxy support.
func NewISSClient(cfg config.DataSourceConfig, proxyURL string, log zerolog.Logger) *ISSClient {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &ISSClient{
		Client: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: transport,
		},
		BaseURL: cfg.BaseURL,
		Board:   cfg.Board,
		Lot:     cfg.DefaultLot,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		backoff: 2 * time.Second,
		log:     log,
		now:     time.Now,
	}
}

func (c *ISSClient) Name() string { return "moex-iss" }

// issTable is the columns/data shape every ISS block uses.
type issTable struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

func (t issTable) index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (c *ISSClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= issMaxAttempts; attempt++ {
		if attempt > 1 {
			wait := c.backoff * time.Duration(1<<(attempt-2))
			c.log.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", wait).Str("path", path).Msg("retrying ISS request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		lastErr = c.doJSON(ctx, u, out)
		if lastErr == nil || !errors.Is(lastErr, errRetryable) {
			return lastErr
		}
	}
	return lastErr
}

func (c *ISSClient) doJSON(ctx context.Context, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errRetryable, err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("iss: status %d, body: %.200s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("iss decode: %w", err)
	}
	return nil
}

// FetchCandles returns daily bars from the given date, oldest first.
func (c *ISSClient) FetchCandles(ctx context.Context, symbol string, from time.Time) ([]model.Candle, error) {
	path := fmt.Sprintf("/iss/engines/stock/markets/shares/securities/%s/candles.json", url.PathEscape(symbol))

	var bars []model.Candle
	start := 0
	for page := 0; page < issMaxPages; page++ {
		params := url.Values{}
		params.Set("interval", "24")
		params.Set("from", from.In(moscow).Format(issDateLayout))
		params.Set("iss.meta", "off")
		params.Set("start", strconv.Itoa(start))

		var body struct {
			Candles issTable `json:"candles"`
		}
		if err := c.getJSON(ctx, path, params, &body); err != nil {
			return nil, fmt.Errorf("candles %s: %w", symbol, err)
		}
		n := len(body.Candles.Data)
		if n == 0 {
			break
		}
		got, err := parseCandles(body.Candles)
		if err != nil {
			return nil, fmt.Errorf("candles %s: %w", symbol, err)
		}
		bars = append(bars, got...)
		if n < issPageSize {
			break
		}
		start += n
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Begin.Before(bars[j].Begin) })
	return bars, nil
}

func parseCandles(t issTable) ([]model.Candle, error) {
	cols := map[string]int{}
	for _, name := range []string{"open", "close", "high", "low", "volume", "begin", "end"} {
		i := t.index(name)
		if i < 0 {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[name] = i
	}

	bars := make([]model.Candle, 0, len(t.Data))
	for _, row := range t.Data {
		if len(row) < len(t.Columns) {
			continue
		}
		begin, err := parseISSTime(row[cols["begin"]])
		if err != nil {
			continue
		}
		end, _ := parseISSTime(row[cols["end"]])
		bars = append(bars, model.Candle{
			Begin:  begin,
			End:    end,
			Open:   toFloat(row[cols["open"]]),
			High:   toFloat(row[cols["high"]]),
			Low:    toFloat(row[cols["low"]]),
			Close:  toFloat(row[cols["close"]]),
			Volume: toFloat(row[cols["volume"]]),
		})
	}
	return bars, nil
}

// FetchQuote takes the close of the latest daily candle as the price.
func (c *ISSClient) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	bars, err := c.FetchCandles(ctx, symbol, c.now().AddDate(0, 0, -quoteLookback))
	if err != nil {
		return model.Quote{}, err
	}
	if len(bars) == 0 {
		return model.Quote{}, fmt.Errorf("quote %s: no recent candles", symbol)
	}
	return model.Quote{
		Symbol: symbol,
		Price:  bars[len(bars)-1].Close,
		Lot:    c.Lot,
		Board:  c.Board,
	}, nil
}

// FetchDividendsTTM sums dividends whose registry close date falls in the last 365 days.
func (c *ISSClient) FetchDividendsTTM(ctx context.Context, symbol string) (float64, error) {
	path := fmt.Sprintf("/iss/securities/%s/dividends.json", url.PathEscape(symbol))
	params := url.Values{}
	params.Set("iss.meta", "off")

	var body struct {
		Dividends issTable `json:"dividends"`
	}
	if err := c.getJSON(ctx, path, params, &body); err != nil {
		return 0, fmt.Errorf("dividends %s: %w", symbol, err)
	}
	dateCol, valueCol := body.Dividends.index("registryclosedate"), body.Dividends.index("value")
	if dateCol < 0 || valueCol < 0 {
		return 0, fmt.Errorf("dividends %s: missing columns", symbol)
	}

	cutoff := c.now().Add(-dividendWindow)
	total := 0.0
	for _, row := range body.Dividends.Data {
		if len(row) <= dateCol || len(row) <= valueCol {
			continue
		}
		date, err := parseISSTime(row[dateCol])
		if err != nil || date.Before(cutoff) {
			continue
		}
		total += toFloat(row[valueCol])
	}
	return total, nil
}

func parseISSTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("not a timestamp: %v", v)
	}
	if t, err := time.ParseInLocation(issTimeLayout, s, moscow); err == nil {
		return t, nil
	}
	return time.ParseInLocation(issDateLayout, s, moscow)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
