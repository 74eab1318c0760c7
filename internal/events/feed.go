package events

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"MoexSentinel/internal/model"
)

const userAgent = "MoexSentinel/1.0 (+https://github.com/moexsentinel)"

// FeedSource reads RSS and Atom feeds.
type FeedSource struct {
	client *http.Client
}

func NewFeedSource(client *http.Client) *FeedSource {
	return &FeedSource{client: client}
}

// Fetch downloads and parses one feed. Entries without a title are skipped.
func (f *FeedSource) Fetch(ctx context.Context, url string) ([]model.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	items := make([]model.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		title := strings.TrimSpace(stripHTML(it.Title))
		if title == "" {
			continue
		}
		item := model.NewsItem{
			Title:       title,
			Description: stripHTML(it.Description),
			Source:      url,
			Link:        it.Link,
		}
		if it.PublishedParsed != nil {
			item.PublishedAt = it.PublishedParsed.UTC()
		} else if it.UpdatedParsed != nil {
			item.PublishedAt = it.UpdatedParsed.UTC()
		}
		items = append(items, item)
	}
	return items, nil
}

// stripHTML returns the visible text of an HTML fragment with whitespace collapsed.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
