package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/logging"
	"trend-shorts-agent/internal/types"
)

func samplePlan() *types.VideoPlan {
	return &types.VideoPlan{
		Topic:       "Crypto Market Momentum",
		Hook:        "Bitcoin just did something wild.",
		Title:       "Why Crypto Is Surging",
		Description: "Institutions are piling in.",
		Hashtags:    []string{"#crypto", "#Bitcoin", "#finance"},
	}
}

func sampleTopic() *types.TrendTopic {
	return &types.TrendTopic{Title: "Crypto Market Momentum", EntityNames: []string{"Bitcoin", "Ethereum"}}
}

func TestBuildMetadata(t *testing.T) {
	meta := BuildMetadata(samplePlan(), sampleTopic(), config.UploadConfig{DefaultTags: []string{"shorts", "CRYPTO"}})

	wantDesc := "Bitcoin just did something wild.\n\nInstitutions are piling in.\n\n#crypto #Bitcoin #finance"
	if meta.Description != wantDesc {
		t.Fatalf("description = %q", meta.Description)
	}
	wantTags := []string{"crypto", "Bitcoin", "finance", "Crypto Market Momentum", "Ethereum", "shorts"}
	if strings.Join(meta.Tags, "|") != strings.Join(wantTags, "|") {
		t.Fatalf("tags = %q", meta.Tags)
	}
	if meta.CategoryID != "19" {
		t.Fatalf("crypto topic category = %q", meta.CategoryID)
	}
	if meta.Privacy != "public" || meta.DefaultLanguage != "en" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestBuildMetadataCategory(t *testing.T) {
	topic := &types.TrendTopic{Title: "Solar Eclipse"}
	if got := BuildMetadata(samplePlan(), topic, config.UploadConfig{}).CategoryID; got != "24" {
		t.Fatalf("default category = %q", got)
	}
	if got := BuildMetadata(samplePlan(), sampleTopic(), config.UploadConfig{CategoryID: "28"}).CategoryID; got != "28" {
		t.Fatalf("configured category = %q", got)
	}
}

func TestBuildMetadataTruncates(t *testing.T) {
	plan := samplePlan()
	plan.Title = strings.Repeat("é", 150)
	plan.Description = strings.Repeat("ü", 4000)
	meta := BuildMetadata(plan, nil, config.UploadConfig{Privacy: "unlisted"})
	if n := len([]rune(meta.Title)); n != titleMaxRunes {
		t.Fatalf("title runes = %d", n)
	}
	if len(meta.Description) > descriptionMaxBytes || !strings.HasPrefix(meta.Description, plan.Hook) {
		t.Fatalf("description bytes = %d", len(meta.Description))
	}
	if meta.Privacy != "unlisted" {
		t.Fatalf("privacy = %q", meta.Privacy)
	}
}

func TestPublishRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Secrets[config.EnvGoogleClientID] = "id"
	_, err := New(cfg, logging.Discard()).Publish(context.Background(), "video.mp4", samplePlan(), sampleTopic())
	var missing *config.MissingEnvError
	if !errors.As(err, &missing) || missing.Key != config.EnvGoogleClientSecret {
		t.Fatalf("expected missing client secret, got %v", err)
	}
}

func TestPublishWithoutIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/token" {
			w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer at" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"kind":"youtube#video"}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Secrets[config.EnvGoogleClientID] = "id"
	cfg.Secrets[config.EnvGoogleClientSecret] = "secret"
	cfg.Secrets[config.EnvGoogleRefreshToken] = "refresh"

	video := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(video, []byte("not really an mp4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	u := New(cfg, logging.Discard(), option.WithEndpoint(srv.URL+"/"))
	u.endpoint = oauth2.Endpoint{TokenURL: srv.URL + "/token"}
	_, err := u.Publish(context.Background(), video, samplePlan(), sampleTopic())
	if !errors.Is(err, ErrNoVideoID) {
		t.Fatalf("expected ErrNoVideoID, got %v", err)
	}
}

func TestPublishDeclaresNotMadeForKids(t *testing.T) {
	var insertBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/token" {
			w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
			return
		}
		body, _ := io.ReadAll(r.Body)
		insertBody.Store(string(body))
		w.Write([]byte(`{"kind":"youtube#video","id":"vid123"}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Secrets[config.EnvGoogleClientID] = "id"
	cfg.Secrets[config.EnvGoogleClientSecret] = "secret"
	cfg.Secrets[config.EnvGoogleRefreshToken] = "refresh"

	video := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(video, []byte("not really an mp4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	u := New(cfg, logging.Discard(), option.WithEndpoint(srv.URL+"/"))
	u.endpoint = oauth2.Endpoint{TokenURL: srv.URL + "/token"}
	res, err := u.Publish(context.Background(), video, samplePlan(), sampleTopic())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if res.VideoID != "vid123" || res.URL != "https://www.youtube.com/watch?v=vid123" {
		t.Fatalf("result = %+v", res)
	}
	body, _ := insertBody.Load().(string)
	if !strings.Contains(body, `"selfDeclaredMadeForKids":false`) {
		t.Fatalf("insert body lacks made-for-kids declaration:\n%s", body)
	}
}
