package research

import (
	"context"
	"log/slog"
	"time"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/types"
)

// Fetcher is one live trend provider
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, region string) ([]types.TrendTopic, error)
}

// Source tries each live fetcher with retries and falls back to a static list
type Source struct {
	fetchers      []Fetcher
	attempts      int
	delay         time.Duration
	defaultRegion string
	log           *slog.Logger
}

// New wires Google Trends and, when subreddits are configured, Reddit
func New(cfg *config.Config, log *slog.Logger) *Source {
	log = log.With("component", "research")
	fetchers := []Fetcher{NewGoogleTrends(cfg.Research.TrendsURL, cfg.Research.Timeout)}
	if len(cfg.Research.Reddit.Subreddits) > 0 {
		r, err := NewReddit(cfg.Research.Reddit, cfg.Research.Timeout, log)
		if err != nil {
			log.Warn("[research] reddit source disabled", "error", err)
		} else {
			fetchers = append(fetchers, r)
		}
	}
	return NewSource(fetchers, cfg.Research.Attempts, cfg.Research.RetryDelay, cfg.Research.Region, log)
}

func NewSource(fetchers []Fetcher, attempts int, delay time.Duration, defaultRegion string, log *slog.Logger) *Source {
	if attempts < 1 {
		attempts = 1
	}
	if defaultRegion == "" {
		defaultRegion = "US"
	}
	return &Source{
		fetchers:      fetchers,
		attempts:      attempts,
		delay:         delay,
		defaultRegion: defaultRegion,
		log:           log,
	}
}

// Discover never fails: if no live source yields topics the fallback list is returned
func (s *Source) Discover(ctx context.Context, region string) []types.TrendTopic {
	if region == "" {
		region = s.defaultRegion
	}
	for _, f := range s.fetchers {
		topics, err := s.fetchWithRetry(ctx, f, region)
		if err == nil {
			s.log.Info("[research] trends fetched", "source", f.Name(), "region", region, "count", len(topics))
			return topics
		}
		s.log.Warn("[research] source exhausted", "source", f.Name(), "error", err)
	}
	s.log.Warn("[research] using fallback topics", "region", region)
	return FallbackTopics()
}

func (s *Source) fetchWithRetry(ctx context.Context, f Fetcher, region string) ([]types.TrendTopic, error) {
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		var topics []types.TrendTopic
		topics, err = f.Fetch(ctx, region)
		if err == nil && len(topics) > 0 {
			return topics, nil
		}
		if err == nil {
			err = errNoTopics
		}
		if attempt == s.attempts {
			break
		}
		s.log.Warn("[research] fetch attempt failed, retrying", "source", f.Name(), "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * s.delay):
		}
	}
	return nil, err
}
