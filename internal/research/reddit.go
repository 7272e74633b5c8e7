package research

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/types"
)

const summaryMaxRunes = 200

// Reddit treats hot posts of a few subreddits as trending topics
type Reddit struct {
	subreddits []string
	log        *slog.Logger
	hot        func(ctx context.Context, subreddit string) ([]*reddit.Post, error)
}

func NewReddit(cfg config.RedditConfig, timeout time.Duration, log *slog.Logger) (*Reddit, error) {
	client, err := reddit.NewReadonlyClient(
		reddit.WithUserAgent(cfg.UserAgent),
		reddit.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	hot := func(ctx context.Context, sub string) ([]*reddit.Post, error) {
		posts, _, err := client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{Limit: 25})
		return posts, err
	}
	return &Reddit{subreddits: cfg.Subreddits, log: log, hot: hot}, nil
}

func (r *Reddit) Name() string { return "reddit" }

// Fetch ignores region; subreddits are not regional. A failing subreddit is
// skipped, the fetch only fails when all of them do.
func (r *Reddit) Fetch(ctx context.Context, _ string) ([]types.TrendTopic, error) {
	var (
		topics  []types.TrendTopic
		lastErr error
		failed  int
	)
	for _, sub := range r.subreddits {
		posts, err := r.hot(ctx, sub)
		if err != nil {
			failed++
			lastErr = fmt.Errorf("r/%s hot posts: %w", sub, err)
			r.log.Warn("[research] subreddit skipped", "subreddit", sub, "error", err)
			continue
		}
		topics = append(topics, postsToTopics(posts)...)
	}
	if failed > 0 && failed == len(r.subreddits) {
		return nil, lastErr
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("no usable posts in %s", strings.Join(r.subreddits, ", "))
	}
	return topics, nil
}

func postsToTopics(posts []*reddit.Post) []types.TrendTopic {
	var topics []types.TrendTopic
	for _, p := range posts {
		if p == nil || p.Stickied || p.NSFW {
			continue
		}
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		summary := truncateRunes(strings.TrimSpace(p.Body), summaryMaxRunes)
		if summary == "" {
			summary = title
		}
		score := p.Score
		if score < 0 {
			score = 0
		}
		topics = append(topics, types.TrendTopic{
			Title:        title,
			EntityNames:  []string{p.SubredditName},
			Summary:      summary,
			SearchVolume: score,
		})
	}
	return topics
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
