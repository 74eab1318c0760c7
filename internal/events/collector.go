package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/metrics"
	"MoexSentinel/internal/model"
)

// Source kinds used in logs and metrics.
const (
	kindFeed      = "rss"
	kindVacancies = "vacancies"
)

// Collector gathers news items from every configured source.
// It owns the aggregate cache.
type Collector struct {
	cfg       config.EventsConfig
	feeds     *FeedSource
	vacancies *VacancySource
	cache     Cache
	metrics   *metrics.Recorder
	log       zerolog.Logger
}

func NewCollector(cfg config.EventsConfig, client *http.Client, cache Cache, rec *metrics.Recorder, log zerolog.Logger) *Collector {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	c := &Collector{
		cfg:     cfg,
		feeds:   NewFeedSource(client),
		cache:   cache,
		metrics: rec,
		log:     log,
	}
	if cfg.UseVacancies && cfg.VacanciesURL != "" {
		c.vacancies = NewVacancySource(client, cfg)
	}
	return c
}

// Collect returns every item from the feeds plus one vacancy search per query.
// A failed source contributes nothing. When ctx is cancelled mid-collection
// the items gathered so far are returned and not cached.
func (c *Collector) Collect(ctx context.Context, queries []string) ([]model.NewsItem, error) {
	if c.vacancies == nil {
		queries = nil
	}
	key := cacheKey(c.cfg.NewsSources, queries)
	if items, ok := c.cache.Get(ctx, key); ok {
		c.metrics.CacheLookup(true)
		c.log.Debug().Int("items", len(items)).Msg("serving collected items from cache")
		return items, nil
	}
	c.metrics.CacheLookup(false)
	defer c.metrics.ObserveSince("collect", time.Now())

	feeds := c.cfg.NewsSources
	items := c.fanOut(ctx, kindFeed, len(feeds), func(fctx context.Context, i int) ([]model.NewsItem, error) {
		return c.feeds.Fetch(fctx, feeds[i])
	})
	if len(queries) > 0 && ctx.Err() == nil {
		items = append(items, c.fanOut(ctx, kindVacancies, len(queries), func(fctx context.Context, i int) ([]model.NewsItem, error) {
			return c.vacancies.Search(fctx, queries[i])
		})...)
	}

	if err := ctx.Err(); err != nil {
		c.log.Warn().Err(err).Int("items", len(items)).Msg("collection interrupted, returning partial items")
		return items, nil
	}
	c.cache.Set(ctx, key, items, c.cfg.CacheTTL())
	c.log.Info().Int("items", len(items)).Int("feeds", len(feeds)).Int("queries", len(queries)).Msg("collection finished")
	return items, nil
}

// fanOut runs n fetches concurrently. Each runs detached from ctx's cancellation
// under its own timeout and writes only its own slot. If ctx ends first the
// slots filled so far are returned.
func (c *Collector) fanOut(ctx context.Context, kind string, n int, fetch func(context.Context, int) ([]model.NewsItem, error)) []model.NewsItem {
	var (
		mu      sync.Mutex
		results = make([][]model.NewsItem, n)
		g       errgroup.Group
	)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout())
			defer cancel()

			got, err := fetch(fctx, i)
			c.metrics.SourceFetch(kind, err)
			if err != nil {
				c.log.Warn().Err(err).Str("kind", kind).Msg("source failed")
				return nil
			}
			c.metrics.ItemsCollected(kind, len(got))
			mu.Lock()
			results[i] = got
			mu.Unlock()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	var out []model.NewsItem
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
