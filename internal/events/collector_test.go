package events

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/metrics"
	"MoexSentinel/internal/model"
)

const rssTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>test</title>%s</channel></rss>`

func rssItem(title, desc string) string {
	return fmt.Sprintf(`<item><title>%s</title><description><![CDATA[%s]]></description><link>https://example.com/n</link><pubDate>Mon, 02 Jan 2006 15:04:05 +0300</pubDate></item>`, title, desc)
}

type sourceServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newSourceServer(t *testing.T, handler http.HandlerFunc) *sourceServer {
	t.Helper()
	s := &sourceServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func feedHandler(items ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		body := ""
		for _, it := range items {
			body += it
		}
		fmt.Fprintf(w, rssTemplate, body)
	}
}

func collectorCfg(feeds ...string) config.EventsConfig {
	return config.EventsConfig{
		Enabled:             true,
		NewsSources:         feeds,
		FetchTimeoutSeconds: 5,
		CacheTTLSeconds:     3600,
		RequestsPerMinute:   60,
		VacanciesPerPage:    20,
		VacanciesPeriodDays: 7,
		HistoryLimit:        100,
	}
}

func newTestCollector(cfg config.EventsConfig) *Collector {
	return NewCollector(cfg, &http.Client{Timeout: 5 * time.Second}, NewMemoryCache(), metrics.Nop(), zerolog.Nop())
}

func TestCollector_PartialFailure(t *testing.T) {
	good := newSourceServer(t, feedHandler(
		rssItem("Мосбиржа: запуск торгов", "<p>Новая <b>секция</b></p>"),
		rssItem("", "entry without a title"),
		rssItem("Второй материал", "текст"),
	))
	bad := newSourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	garbage := newSourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	})

	c := newTestCollector(collectorCfg(good.URL, bad.URL, garbage.URL))
	items, err := c.Collect(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Мосбиржа: запуск торгов", items[0].Title)
	assert.Equal(t, "Новая секция", items[0].Description)
	assert.Equal(t, good.URL, items[0].Source)
	assert.False(t, items[0].PublishedAt.IsZero())
}

func TestCollector_CacheHitSkipsNetwork(t *testing.T) {
	feed := newSourceServer(t, feedHandler(rssItem("Новость", "текст")))
	c := newTestCollector(collectorCfg(feed.URL))

	first, err := c.Collect(context.Background(), nil)
	require.NoError(t, err)
	second, err := c.Collect(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, int32(1), feed.hits.Load())
	assert.Equal(t, first, second)
}

func TestCollector_CacheExpires(t *testing.T) {
	feed := newSourceServer(t, feedHandler(rssItem("Новость", "текст")))
	cache := NewMemoryCache()
	now := time.Now()
	cache.now = func() time.Time { return now }

	c := NewCollector(collectorCfg(feed.URL), http.DefaultClient, cache, metrics.Nop(), zerolog.Nop())
	_, err := c.Collect(context.Background(), nil)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = c.Collect(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), feed.hits.Load())
}

func TestCollector_Vacancies(t *testing.T) {
	var queries atomic.Int32
	hh := newSourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		queries.Add(1)
		q := r.URL.Query()
		if q.Get("per_page") != "20" || q.Get("period") != "7" || r.Header.Get("User-Agent") == "" {
			http.Error(w, "bad params", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items":[{"name":"Go developer %s","alternate_url":"https://hh.ru/vacancy/1",
			"published_at":"2024-05-01T10:00:00+0300","employer":{"name":"%s"},
			"snippet":{"requirement":"Опыт с <highlighttext>Go</highlighttext>","responsibility":"Запуск сервисов"}}]}`,
			q.Get("text"), q.Get("text"))
	})
	feed := newSourceServer(t, feedHandler(rssItem("Новость", "текст")))

	cfg := collectorCfg(feed.URL)
	cfg.UseVacancies = true
	cfg.VacanciesURL = hh.URL
	c := newTestCollector(cfg)

	items, err := c.Collect(context.Background(), []string{"SBER", "MOEX"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, int32(2), queries.Load())

	var vac []model.NewsItem
	for _, it := range items {
		if it.Source == vacancySource {
			vac = append(vac, it)
		}
	}
	require.Len(t, vac, 2)
	assert.Equal(t, "Опыт с Go Запуск сервисов", vac[0].Description)
	assert.Equal(t, 2024, vac[0].PublishedAt.Year())
	assert.NotEmpty(t, vac[0].Employer)
}

func TestCollector_CancelledIsPartialAndUncached(t *testing.T) {
	fast := newSourceServer(t, feedHandler(rssItem("Быстрая", "текст")))
	slow := newSourceServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
			return
		}
		feedHandler(rssItem("Медленная", "текст"))(w, r)
	})

	c := newTestCollector(collectorCfg(fast.URL, slow.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	items, err := c.Collect(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Быстрая", items[0].Title)

	_, ok := c.cache.Get(context.Background(), cacheKey(c.cfg.NewsSources, nil))
	assert.False(t, ok, "partial results must not be cached")
}

func TestCacheKey_OrderIndependent(t *testing.T) {
	assert.Equal(t,
		cacheKey([]string{"b", "a"}, []string{"SBER", "GAZP"}),
		cacheKey([]string{"a", "b"}, []string{"GAZP", "SBER"}))
	assert.NotEqual(t, cacheKey([]string{"a"}, nil), cacheKey([]string{"a"}, []string{"SBER"}))
}
