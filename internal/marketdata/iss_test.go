package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

const candlesJSON = `{"candles":{"columns":["open","close","high","low","value","volume","begin","end"],"data":[
["270.1","271.5",272.0,269.8,1.0e9,3500000,"2024-05-02 00:00:00","2024-05-02 23:59:59"],
[268.0,270.0,271.0,267.5,1.1e9,4100000,"2024-05-01 00:00:00","2024-05-01 23:59:59"]
]}}`

func testClient(t *testing.T, handler http.HandlerFunc) (*ISSClient, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default().DataSource
	cfg.BaseURL = srv.URL
	cfg.RequestsPerSecond = 1000
	c := NewISSClient(cfg, "", zerolog.Nop())
	c.backoff = time.Millisecond
	c.now = func() time.Time { return time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC) }
	return c, &hits
}

func TestISSClient_FetchCandles(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/securities/SBER/candles.json") || r.URL.Query().Get("interval") != "24" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(candlesJSON))
	})

	bars, err := c.FetchCandles(context.Background(), "SBER", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Begin.Before(bars[1].Begin), "bars are sorted oldest first")
	assert.Equal(t, 270.0, bars[0].Close)
	assert.Equal(t, 271.5, bars[1].Close, "string numbers are accepted")
	assert.Equal(t, 4100000.0, bars[0].Volume)
}

func TestISSClient_FetchQuote(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(candlesJSON))
	})
	q, err := c.FetchQuote(context.Background(), "SBER")
	require.NoError(t, err)
	assert.Equal(t, model.Quote{Symbol: "SBER", Price: 271.5, Lot: 10, Board: "TQBR"}, q)
}

func TestISSClient_FetchQuoteEmpty(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candles":{"columns":[],"data":[]}}`))
	})
	_, err := c.FetchQuote(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestISSClient_FetchDividendsTTM(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/iss/securities/SBER/dividends.json") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"dividends":{"columns":["secid","isin","registryclosedate","value","currencyid"],"data":[
			["SBER","RU0009029540","2022-05-11",18.7,"RUB"],
			["SBER","RU0009029540","2023-04-11",25.0,"RUB"],
			["SBER","RU0009029540","2023-07-11",25.0,"RUB"],
			["SBER","RU0009029540","2024-01-15",8.0,"RUB"]
		]}}`))
	})
	ttm, err := c.FetchDividendsTTM(context.Background(), "SBER")
	require.NoError(t, err)
	assert.InDelta(t, 33.0, ttm, 1e-9)
}

func TestISSClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, hits := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(candlesJSON))
	})
	bars, err := c.FetchCandles(context.Background(), "SBER", time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, int32(3), hits.Load())
}

func TestISSClient_NoRetryOnClientError(t *testing.T) {
	c, hits := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	_, err := c.FetchDividendsTTM(context.Background(), "SBER")
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCollector_Collect(t *testing.T) {
	bars := GenerateMockCandles(100, 30)
	bars[5].High = bars[5].Low - 1
	mock := &MockFetcher{Price: 100, DividendTTM: 8, Candles: bars}

	data, err := NewCollector(mock, 400, zerolog.Nop()).Collect(context.Background(), "SBER")
	require.NoError(t, err)
	assert.Equal(t, 100.0, data.Quote.Price)
	assert.Equal(t, 8.0, data.DividendTTM)
	assert.Len(t, data.Candles, 29, "invalid candle is dropped")
}

func TestCollector_NoPrice(t *testing.T) {
	_, err := NewCollector(&MockFetcher{Price: 0}, 400, zerolog.Nop()).Collect(context.Background(), "SBER")
	assert.ErrorIs(t, err, ErrNoPrice)

	boom := errors.New("boom")
	_, err = NewCollector(&MockFetcher{Err: boom}, 400, zerolog.Nop()).Collect(context.Background(), "SBER")
	assert.ErrorIs(t, err, boom)
}

func TestGenerateMockCandles(t *testing.T) {
	bars := GenerateMockCandles(250, 10)
	require.Len(t, bars, 10)
	assert.InDelta(t, 250.0, bars[9].Close, 1e-9)
	for i, b := range bars {
		assert.NoError(t, b.Validate(), fmt.Sprintf("bar %d", i))
		if i > 0 {
			assert.True(t, bars[i-1].Begin.Before(b.Begin))
		}
	}
}
