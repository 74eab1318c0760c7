package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

const vacancySource = "hh.ru"

// VacancySource searches the hh.ru vacancies API.
type VacancySource struct {
	client  *http.Client
	baseURL string
	perPage int
	period  int
	limiter *rate.Limiter
}

func NewVacancySource(client *http.Client, cfg config.EventsConfig) *VacancySource {
	rpm := cfg.RequestsPerMinute
	return &VacancySource{
		client:  client,
		baseURL: cfg.VacanciesURL,
		perPage: cfg.VacanciesPerPage,
		period:  cfg.VacanciesPeriodDays,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm),
	}
}

type vacancyPage struct {
	Items []struct {
		Name         string `json:"name"`
		AlternateURL string `json:"alternate_url"`
		PublishedAt  string `json:"published_at"`
		Employer     struct {
			Name string `json:"name"`
		} `json:"employer"`
		Snippet struct {
			Requirement    string `json:"requirement"`
			Responsibility string `json:"responsibility"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search returns the recent postings matching query.
func (v *VacancySource) Search(ctx context.Context, query string) ([]model.NewsItem, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("text", query)
	params.Set("per_page", strconv.Itoa(v.perPage))
	params.Set("period", strconv.Itoa(v.period))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching vacancies %q: %w", query, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching vacancies %q: HTTP %d", query, resp.StatusCode)
	}

	var page vacancyPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding vacancies %q: %w", query, err)
	}

	items := make([]model.NewsItem, 0, len(page.Items))
	for _, it := range page.Items {
		title := strings.TrimSpace(it.Name)
		if title == "" {
			continue
		}
		desc := stripHTML(strings.TrimSpace(it.Snippet.Requirement + " " + it.Snippet.Responsibility))
		items = append(items, model.NewsItem{
			Title:       title,
			Description: desc,
			Source:      vacancySource,
			Link:        it.AlternateURL,
			Employer:    it.Employer.Name,
			PublishedAt: parseTime(it.PublishedAt),
		})
	}
	return items, nil
}

// parseTime accepts the timestamp layouts job boards use.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
