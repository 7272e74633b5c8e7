package research

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"trend-shorts-agent/internal/logging"
	"trend-shorts-agent/internal/types"
)

const dailyTrendsBody = `)]}',
{"default":{"trendingSearchesDays":[{"trendingSearches":[
 {"title":{"query":"Solar Eclipse"},"formattedTraffic":"200K+","entityNames":["Eclipse","NASA"],
  "articles":[{"title":"A"},{"title":"B"},{"title":"C"},{"title":"D"}]},
 {"title":{"query":""},"formattedTraffic":"2M+","articles":[]},
 {"title":{"query":"Quiet Topic"},"formattedTraffic":"n/a"}
]}]}}`

func TestParseDailyTrends(t *testing.T) {
	topics, err := parseDailyTrends([]byte(dailyTrendsBody))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("got %d topics", len(topics))
	}
	first := topics[0]
	if first.Title != "Solar Eclipse" || first.SearchVolume != 200000 {
		t.Fatalf("first = %+v", first)
	}
	if first.Summary != "A • B • C" {
		t.Fatalf("summary = %q", first.Summary)
	}
	if len(first.EntityNames) != 2 {
		t.Fatalf("entities = %v", first.EntityNames)
	}
	if topics[1].Title != "Untitled Trend" || topics[1].Summary != "Trending topic" || topics[1].SearchVolume != 2000000 {
		t.Fatalf("second = %+v", topics[1])
	}
	if topics[2].Summary != "Quiet Topic" || topics[2].SearchVolume != 0 {
		t.Fatalf("third = %+v", topics[2])
	}
}

func TestGoogleTrendsFetch(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("geo") != "GB" {
			t.Errorf("geo = %q", r.URL.Query().Get("geo"))
		}
		w.Write([]byte(dailyTrendsBody))
	}))
	defer srv.Close()

	topics, err := NewGoogleTrends(srv.URL, time.Second).Fetch(context.Background(), "GB")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("got %d topics", len(topics))
	}
}

func TestGoogleTrendsEmptyIsError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`)]}',{"default":{"trendingSearchesDays":[]}}`))
	}))
	defer srv.Close()

	if _, err := NewGoogleTrends(srv.URL, time.Second).Fetch(context.Background(), "US"); err == nil {
		t.Fatalf("expected error for zero topics")
	}
}

type stubFetcher struct {
	name   string
	calls  atomic.Int32
	topics []types.TrendTopic
	err    error
	// succeedOn makes the fetcher fail until this attempt
	succeedOn int32
}

func (s *stubFetcher) Name() string { return s.name }

func (s *stubFetcher) Fetch(_ context.Context, _ string) ([]types.TrendTopic, error) {
	n := s.calls.Add(1)
	if s.succeedOn > 0 && n < s.succeedOn {
		return nil, errors.New("transient")
	}
	return s.topics, s.err
}

func TestDiscoverFallsBackWhenAllAttemptsFail(t *testing.T) {
	t.Parallel()
	google := &stubFetcher{name: "google", err: errors.New("boom")}
	rd := &stubFetcher{name: "reddit"} // returns zero topics
	src := NewSource([]Fetcher{google, rd}, 3, time.Millisecond, "", logging.Discard())

	topics := src.Discover(context.Background(), "")
	if len(topics) < 3 {
		t.Fatalf("fallback should have at least 3 topics, got %d", len(topics))
	}
	if topics[0].Title != "Emerging AI Productivity Tools" {
		t.Fatalf("first fallback = %q", topics[0].Title)
	}
	if google.calls.Load() != 3 || rd.calls.Load() != 3 {
		t.Fatalf("attempts google=%d reddit=%d", google.calls.Load(), rd.calls.Load())
	}
}

func TestDiscoverRetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	want := []types.TrendTopic{{Title: "Live", SearchVolume: 1}}
	f := &stubFetcher{name: "google", topics: want, succeedOn: 3}
	src := NewSource([]Fetcher{f}, 3, time.Millisecond, "US", logging.Discard())

	got := src.Discover(context.Background(), "")
	if len(got) != 1 || got[0].Title != "Live" {
		t.Fatalf("got %+v", got)
	}
}

func TestFallbackTopicsAreFreshCopies(t *testing.T) {
	a := FallbackTopics()
	a[0].Title = "mutated"
	if FallbackTopics()[0].Title == "mutated" {
		t.Fatalf("fallback list shared between calls")
	}
}

func TestSelectTopic(t *testing.T) {
	topics := []types.TrendTopic{
		{Title: "Alpha", SearchVolume: 10},
		{Title: "Beta", SearchVolume: 90},
		{Title: "Gamma", SearchVolume: 90},
		{Title: "Delta", SearchVolume: 5},
	}
	cases := []struct {
		name  string
		force string
		want  string
	}{
		{"max volume", "", "Beta"},
		{"tie keeps first", "   ", "Beta"},
		{"forced low rank", "delta", "Delta"},
		{"forced case insensitive", "ALPHA", "Alpha"},
		{"forced unknown falls back", "Omega", "Beta"},
	}
	for _, tc := range cases {
		got, err := SelectTopic(topics, tc.force)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got.Title != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got.Title, tc.want)
		}
	}
}

func TestSelectTopicEmpty(t *testing.T) {
	if _, err := SelectTopic(nil, "x"); !errors.Is(err, ErrEmptyTopics) {
		t.Fatalf("expected ErrEmptyTopics, got %v", err)
	}
}

func TestPostsToTopics(t *testing.T) {
	posts := []*reddit.Post{
		{Title: "Pinned rules", Stickied: true, SubredditName: "technology"},
		{Title: "NSFW thing", NSFW: true, SubredditName: "technology"},
		{Title: "Robots fold laundry", Body: strings.Repeat("x", 300), Score: 1200, SubredditName: "technology"},
		{Title: "Short one", Score: -3, SubredditName: "news"},
	}
	topics := postsToTopics(posts)
	if len(topics) != 2 {
		t.Fatalf("got %d topics", len(topics))
	}
	if topics[0].SearchVolume != 1200 || topics[0].EntityNames[0] != "technology" {
		t.Fatalf("first = %+v", topics[0])
	}
	if len([]rune(topics[0].Summary)) != summaryMaxRunes+3 {
		t.Fatalf("summary not truncated: %d", len(topics[0].Summary))
	}
	if topics[1].Summary != "Short one" || topics[1].SearchVolume != 0 {
		t.Fatalf("second = %+v", topics[1])
	}
}

func TestRedditSkipsFailingSubreddit(t *testing.T) {
	rd := &Reddit{
		subreddits: []string{"broken", "technology"},
		log:        logging.Discard(),
		hot: func(_ context.Context, sub string) ([]*reddit.Post, error) {
			if sub == "broken" {
				return nil, errors.New("503 service unavailable")
			}
			return []*reddit.Post{{Title: "Robots fold laundry", Score: 1200, SubredditName: sub}}, nil
		},
	}
	topics, err := rd.Fetch(context.Background(), "US")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(topics) != 1 || topics[0].Title != "Robots fold laundry" {
		t.Fatalf("topics = %+v", topics)
	}
}

func TestRedditFailsWhenEverySubredditFails(t *testing.T) {
	rd := &Reddit{
		subreddits: []string{"a", "b"},
		log:        logging.Discard(),
		hot: func(context.Context, string) ([]*reddit.Post, error) {
			return nil, errors.New("boom")
		},
	}
	if _, err := rd.Fetch(context.Background(), "US"); err == nil || !strings.Contains(err.Error(), "r/b") {
		t.Fatalf("expected error naming the last subreddit, got %v", err)
	}
}
