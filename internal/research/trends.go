package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trend-shorts-agent/internal/types"
)

var antiJSONPrefix = []byte(")]}',")

// GoogleTrends fetches the daily trending searches for a region
type GoogleTrends struct {
	endpoint   string
	httpClient *http.Client
}

func NewGoogleTrends(endpoint string, timeout time.Duration) *GoogleTrends {
	return &GoogleTrends{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *GoogleTrends) Name() string { return "google-trends" }

type dailyTrendsResponse struct {
	Default struct {
		TrendingSearchesDays []struct {
			TrendingSearches []trendingSearch `json:"trendingSearches"`
		} `json:"trendingSearchesDays"`
	} `json:"default"`
}

type trendingSearch struct {
	Title struct {
		Query string `json:"query"`
	} `json:"title"`
	FormattedTraffic string   `json:"formattedTraffic"`
	EntityNames      []string `json:"entityNames"`
	Articles         []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// Fetch returns today's trending searches, in the order Google ranks them
func (g *GoogleTrends) Fetch(ctx context.Context, region string) ([]types.TrendTopic, error) {
	q := url.Values{}
	q.Set("hl", "en-US")
	q.Set("tz", "0")
	q.Set("geo", region)
	q.Set("ns", "15")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; TrendShortsAgent/1.0)")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google trends request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from Google Trends", resp.StatusCode)
	}
	topics, err := parseDailyTrends(body)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("no trends received for region %s", region)
	}
	return topics, nil
}

func parseDailyTrends(body []byte) ([]types.TrendTopic, error) {
	body = bytes.TrimSpace(body)
	body = bytes.TrimPrefix(body, antiJSONPrefix)

	var parsed dailyTrendsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse daily trends: %w", err)
	}
	days := parsed.Default.TrendingSearchesDays
	if len(days) == 0 {
		return nil, nil
	}

	topics := make([]types.TrendTopic, 0, len(days[0].TrendingSearches))
	for _, s := range days[0].TrendingSearches {
		title := strings.TrimSpace(s.Title.Query)
		if title == "" {
			title = "Untitled Trend"
		}
		topics = append(topics, types.TrendTopic{
			Title:        title,
			EntityNames:  s.EntityNames,
			Summary:      summarise(s),
			SearchVolume: parseTraffic(s.FormattedTraffic),
		})
	}
	return topics, nil
}

func summarise(s trendingSearch) string {
	var titles []string
	for _, a := range s.Articles {
		if t := strings.TrimSpace(a.Title); t != "" {
			titles = append(titles, t)
		}
		if len(titles) == 3 {
			break
		}
	}
	if len(titles) > 0 {
		return strings.Join(titles, " • ")
	}
	if q := strings.TrimSpace(s.Title.Query); q != "" {
		return q
	}
	return "Trending topic"
}

// parseTraffic turns "200K+" into 200000. Anything unparseable is 0.
func parseTraffic(s string) int {
	s = strings.ToUpper(strings.TrimSpace(s))
	multiplier := 1
	var digits strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == 'K':
			multiplier = 1_000
		case r == 'M':
			multiplier = 1_000_000
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n * multiplier
}
