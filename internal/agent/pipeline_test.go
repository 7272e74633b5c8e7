package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/logging"
	"trend-shorts-agent/internal/render"
	"trend-shorts-agent/internal/research"
	"trend-shorts-agent/internal/script"
	"trend-shorts-agent/internal/types"
	"trend-shorts-agent/internal/upload"
)

type fakeTrends struct{ topics []types.TrendTopic }

func (f fakeTrends) Discover(context.Context, string) []types.TrendTopic { return f.topics }

type fakePlanner struct {
	err   error
	topic string
}

func (f *fakePlanner) Plan(_ context.Context, topic types.TrendTopic) (*types.VideoPlan, error) {
	f.topic = topic.Title
	if f.err != nil {
		return nil, f.err
	}
	return &types.VideoPlan{
		Topic: topic.Title, Title: "T", Hook: "H", Description: "D", CallToAction: "C",
		Hashtags: []string{"#a"},
		Scenes:   []types.VideoScene{{ID: "1"}, {ID: "2"}, {ID: "3"}},
	}, nil
}

type fakeRenderer struct{}

func (fakeRenderer) RenderScenes(_ context.Context, scenes []types.VideoScene, ws string) ([]string, error) {
	var out []string
	for i := range scenes {
		p := filepath.Join(ws, "slide"+string(rune('a'+i))+".png")
		os.WriteFile(p, []byte("png"), 0o644)
		out = append(out, p)
	}
	return out, nil
}

type fakeNarrator struct{}

func (fakeNarrator) Synthesize(_ context.Context, _ []types.VideoScene, ws string) (string, error) {
	p := filepath.Join(ws, "voiceover.mp3")
	return p, os.WriteFile(p, []byte("mp3"), 0o644)
}

type fakeComposer struct{ got render.Options }

func (f *fakeComposer) Compose(_ context.Context, opts render.Options) (string, error) {
	f.got = opts
	p := filepath.Join(opts.Workspace, "video.mp4")
	return p, os.WriteFile(p, []byte("mp4"), 0o644)
}

type fakePublisher struct {
	err  error
	file string
}

func (f *fakePublisher) Publish(_ context.Context, file string, _ *types.VideoPlan, _ *types.TrendTopic) (upload.Result, error) {
	f.file = file
	if f.err != nil {
		return upload.Result{}, f.err
	}
	return upload.Result{VideoID: "abc123", URL: "https://www.youtube.com/watch?v=abc123"}, nil
}

type pipelineFixture struct {
	root      string
	planner   *fakePlanner
	composer  *fakeComposer
	publisher *fakePublisher
	progress  *Progress
	pipeline  *Pipeline
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		root:      t.TempDir(),
		planner:   &fakePlanner{},
		composer:  &fakeComposer{},
		publisher: &fakePublisher{},
		progress:  NewProgress(),
	}
	rc := config.Default().Render
	f.pipeline = NewPipeline(PipelineDeps{
		Trends:    fakeTrends{topics: research.FallbackTopics()},
		Planner:   f.planner,
		Renderer:  fakeRenderer{},
		Narrator:  fakeNarrator{},
		Composer:  f.composer,
		Publisher: f.publisher,
	}, PipelineConfig{
		WorkspaceRoot:      f.root,
		MinSecondsPerSlide: rc.MinSecondsPerSlide,
		TargetSeconds:      rc.TargetSeconds,
		FPS:                rc.FPS,
	}, f.progress, logging.Discard())
	return f
}

func TestExecuteSuccessRedactsAndCleansUp(t *testing.T) {
	f := newFixture(t)
	events, unsubscribe := f.progress.Subscribe(64)
	defer unsubscribe()

	var observed []types.AgentRunSummary
	s := f.pipeline.Execute(context.Background(), "", func(s types.AgentRunSummary) { observed = append(observed, s) })

	if s.Status != types.StatusSuccess || s.Error != "" {
		t.Fatalf("summary = %+v", s)
	}
	if s.YouTubeURL == "" || s.YouTubeVideoID != "abc123" {
		t.Fatalf("video = %q %q", s.YouTubeVideoID, s.YouTubeURL)
	}
	want := types.RunArtifacts{Workspace: "(cleaned)", AudioPath: "(uploaded)", VideoPath: "(uploaded)"}
	if s.Artifacts == nil || *s.Artifacts != want {
		t.Fatalf("artifacts = %+v", s.Artifacts)
	}
	if s.CompletedAt == nil || s.Topic == nil || s.Topic.Title != "Emerging AI Productivity Tools" {
		t.Fatalf("summary = %+v", s)
	}
	entries, _ := os.ReadDir(filepath.Join(f.root, workspaceDirName))
	if len(entries) != 0 {
		t.Fatalf("workspace not removed: %v", entries)
	}
	if f.composer.got.SecondsPerSlide != 18 || f.composer.got.FPS != 30 || len(f.composer.got.Slides) != 3 {
		t.Fatalf("compose options = %+v", f.composer.got)
	}
	if len(observed) < 7 || observed[0].Status != types.StatusRunning {
		t.Fatalf("observed %d snapshots", len(observed))
	}

	unsubscribe()
	var kinds []string
	for e := range events {
		kinds = append(kinds, e.Type)
	}
	if kinds[0] != EventRunStarted || kinds[len(kinds)-1] != EventRunFinished {
		t.Fatalf("events = %v", kinds)
	}
}

func TestExecuteFailureKeepsWorkspace(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = upload.ErrNoVideoID

	s := f.pipeline.Execute(context.Background(), "", nil)
	if s.Status != types.StatusError || !strings.Contains(s.Error, "YouTube API did not return a video ID") {
		t.Fatalf("summary = %+v", s)
	}
	if !strings.HasPrefix(s.Error, "upload: ") {
		t.Fatalf("error should name the stage: %q", s.Error)
	}
	for _, p := range []string{s.Artifacts.Workspace, s.Artifacts.AudioPath, s.Artifacts.VideoPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("artifact %q should still exist: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(s.Artifacts.Workspace, "summary.json")); err != nil {
		t.Fatalf("summary.json missing: %v", err)
	}
	if s.YouTubeURL != "" {
		t.Fatalf("url = %q", s.YouTubeURL)
	}
}

func TestExecuteMalformedPlanStopsRun(t *testing.T) {
	f := newFixture(t)
	f.planner.err = fmt.Errorf("%w: no choices returned", script.ErrMalformedResponse)

	s := f.pipeline.Execute(context.Background(), "", nil)
	if s.Status != types.StatusError || s.Plan != nil {
		t.Fatalf("summary = %+v", s)
	}
	if f.publisher.file != "" {
		t.Fatalf("publisher should not run")
	}
	if s.Artifacts.AudioPath != "" || s.Artifacts.VideoPath != "" {
		t.Fatalf("artifacts = %+v", s.Artifacts)
	}
}

func TestExecuteForcedTopic(t *testing.T) {
	f := newFixture(t)
	s := f.pipeline.Execute(context.Background(), "longevity supplements craze", nil)
	if f.planner.topic != "Longevity Supplements Craze" || s.Topic.Title != "Longevity Supplements Craze" {
		t.Fatalf("planned topic = %q", f.planner.topic)
	}
}

type panickyNarrator struct{}

func (panickyNarrator) Synthesize(context.Context, []types.VideoScene, string) (string, error) {
	panic("nil map")
}

func TestExecuteRecoversPanics(t *testing.T) {
	f := newFixture(t)
	f.pipeline.deps.Narrator = panickyNarrator{}
	events, unsubscribe := f.progress.Subscribe(64)
	defer unsubscribe()

	s := f.pipeline.Execute(context.Background(), "", nil)
	if s.Status != types.StatusError || s.Error != "audio: panic: nil map" {
		t.Fatalf("summary = %+v", s)
	}

	var failed *Event
	for len(events) > 0 {
		e := <-events
		if e.Type == EventStageFailed {
			failed = &e
		}
	}
	if failed == nil || failed.Stage != StageAudio || failed.Message != "panic: nil map" {
		t.Fatalf("stage failure event = %+v", failed)
	}
}

func TestControllerWithPipeline(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.pipeline, 20, logging.Discard())
	s, err := c.Start(context.Background(), "")
	if err != nil || s.Status != types.StatusSuccess {
		t.Fatalf("start = %+v, %v", s, err)
	}
	if got := c.Status().History[0].Artifacts.Workspace; got != types.CleanedPlaceholder {
		t.Fatalf("history workspace = %q", got)
	}
}
