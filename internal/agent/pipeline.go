package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"trend-shorts-agent/internal/render"
	"trend-shorts-agent/internal/research"
	"trend-shorts-agent/internal/types"
	"trend-shorts-agent/internal/upload"
)

// Stage names, in execution order
const (
	StageWorkspace = "workspace"
	StageTrends    = "trends"
	StageScript    = "script"
	StageVisuals   = "visuals"
	StageAudio     = "audio"
	StageRender    = "render"
	StageUpload    = "upload"
)

type TrendSource interface {
	Discover(ctx context.Context, region string) []types.TrendTopic
}

type Planner interface {
	Plan(ctx context.Context, topic types.TrendTopic) (*types.VideoPlan, error)
}

type SceneRenderer interface {
	RenderScenes(ctx context.Context, scenes []types.VideoScene, workspace string) ([]string, error)
}

type Narrator interface {
	Synthesize(ctx context.Context, scenes []types.VideoScene, workspace string) (string, error)
}

type VideoComposer interface {
	Compose(ctx context.Context, opts render.Options) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, videoFile string, plan *types.VideoPlan, topic *types.TrendTopic) (upload.Result, error)
}

// PipelineDeps are the stage implementations
type PipelineDeps struct {
	Trends    TrendSource
	Planner   Planner
	Renderer  SceneRenderer
	Narrator  Narrator
	Composer  VideoComposer
	Publisher Publisher
}

// PipelineConfig holds the knobs the pipeline reads directly
type PipelineConfig struct {
	Region             string
	WorkspaceRoot      string
	MinSecondsPerSlide int
	TargetSeconds      int
	FPS                int
}

// Pipeline executes one run end to end
type Pipeline struct {
	deps     PipelineDeps
	cfg      PipelineConfig
	progress *Progress
	log      *slog.Logger
	now      func() time.Time
}

func NewPipeline(deps PipelineDeps, cfg PipelineConfig, progress *Progress, log *slog.Logger) *Pipeline {
	return &Pipeline{
		deps:     deps,
		cfg:      cfg,
		progress: progress,
		log:      log.With("component", "pipeline"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Execute runs every stage and returns the terminal summary. It never
// returns an error: failures end up in the summary. observe, if set, receives
// a snapshot after each stage.
func (p *Pipeline) Execute(ctx context.Context, forceTopic string, observe func(types.AgentRunSummary)) (summary types.AgentRunSummary) {
	summary = types.AgentRunSummary{
		ID:        uuid.NewString()[:8],
		Status:    types.StatusRunning,
		StartedAt: p.now(),
	}
	if observe == nil {
		observe = func(types.AgentRunSummary) {}
	}
	log := p.log.With("run_id", summary.ID)
	log.Info("🎬 run starting", "force_topic", forceTopic)
	p.progress.Publish(Event{RunID: summary.ID, Type: EventRunStarted, Status: types.StatusRunning})
	observe(summary.Clone())

	err := p.run(ctx, &summary, forceTopic, observe, log)
	p.finalize(&summary, err, log)
	p.progress.Publish(Event{RunID: summary.ID, Type: EventRunFinished, Status: summary.Status, Message: summary.Error})
	return summary
}

func (p *Pipeline) run(ctx context.Context, s *types.AgentRunSummary, forceTopic string, observe func(types.AgentRunSummary), log *slog.Logger) error {
	// a panicking stage fails like any other
	stage := func(name string, fn func() error) (err error) {
		p.progress.Publish(Event{RunID: s.ID, Type: EventStageStarted, Stage: name})
		log.Info("━━━ stage ━━━", "stage", name)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
			if err != nil {
				p.progress.Publish(Event{RunID: s.ID, Type: EventStageFailed, Stage: name, Message: err.Error()})
				err = fmt.Errorf("%s: %w", name, err)
				return
			}
			p.progress.Publish(Event{RunID: s.ID, Type: EventStageCompleted, Stage: name})
			observe(s.Clone())
		}()
		return fn()
	}

	var (
		workspace string
		slides    []string
	)
	if err := stage(StageWorkspace, func() error {
		dir, err := createWorkspace(p.cfg.WorkspaceRoot)
		if err != nil {
			return err
		}
		workspace = dir
		s.Artifacts = &types.RunArtifacts{Workspace: dir}
		return nil
	}); err != nil {
		return err
	}

	if err := stage(StageTrends, func() error {
		topics := p.deps.Trends.Discover(ctx, p.cfg.Region)
		topic, err := research.SelectTopic(topics, forceTopic)
		if err != nil {
			return err
		}
		if forced := strings.TrimSpace(forceTopic); forced != "" && !strings.EqualFold(forced, strings.TrimSpace(topic.Title)) {
			log.Warn("[trends] forced topic not found, using top topic", "forced", forced, "selected", topic.Title)
		}
		s.Topic = &topic
		return nil
	}); err != nil {
		return err
	}

	if err := stage(StageScript, func() error {
		plan, err := p.deps.Planner.Plan(ctx, *s.Topic)
		if err != nil {
			return err
		}
		s.Plan = plan
		if err := saveJSON(filepath.Join(workspace, "plan.json"), plan); err != nil {
			log.Warn("could not save plan", "error", err)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := stage(StageVisuals, func() error {
		var err error
		slides, err = p.deps.Renderer.RenderScenes(ctx, s.Plan.Scenes, workspace)
		return err
	}); err != nil {
		return err
	}

	if err := stage(StageAudio, func() error {
		audioPath, err := p.deps.Narrator.Synthesize(ctx, s.Plan.Scenes, workspace)
		if err != nil {
			return err
		}
		s.Artifacts.AudioPath = audioPath
		return nil
	}); err != nil {
		return err
	}

	if err := stage(StageRender, func() error {
		videoPath, err := p.deps.Composer.Compose(ctx, render.Options{
			Slides:          slides,
			Audio:           s.Artifacts.AudioPath,
			SecondsPerSlide: render.SecondsPerSlide(len(s.Plan.Scenes), p.cfg.MinSecondsPerSlide, p.cfg.TargetSeconds),
			FPS:             p.cfg.FPS,
			Workspace:       workspace,
		})
		if err != nil {
			return err
		}
		s.Artifacts.VideoPath = videoPath
		return nil
	}); err != nil {
		return err
	}

	return stage(StageUpload, func() error {
		res, err := p.deps.Publisher.Publish(ctx, s.Artifacts.VideoPath, s.Plan, s.Topic)
		if err != nil {
			return err
		}
		s.YouTubeVideoID = res.VideoID
		s.YouTubeURL = res.URL
		return nil
	})
}

// finalize moves the run to its terminal status. A successful run's
// workspace is deleted and its paths redacted; a failed run keeps both.
func (p *Pipeline) finalize(s *types.AgentRunSummary, err error, log *slog.Logger) {
	completed := p.now()
	s.CompletedAt = &completed

	if err != nil {
		s.Status = types.StatusError
		s.Error = err.Error()
		log.Error("❌ run failed", "error", err)
		if s.Artifacts != nil && s.Artifacts.Workspace != "" {
			if saveErr := saveJSON(filepath.Join(s.Artifacts.Workspace, "summary.json"), s); saveErr != nil {
				log.Warn("could not save summary", "error", saveErr)
			}
			log.Info("workspace kept for inspection", "path", s.Artifacts.Workspace)
		}
		return
	}

	s.Status = types.StatusSuccess
	if s.Artifacts != nil && s.Artifacts.Workspace != "" {
		if rmErr := os.RemoveAll(s.Artifacts.Workspace); rmErr != nil {
			log.Warn("could not remove workspace", "path", s.Artifacts.Workspace, "error", rmErr)
		}
	}
	s.Artifacts = &types.RunArtifacts{
		Workspace: types.CleanedPlaceholder,
		AudioPath: types.UploadedPlaceholder,
		VideoPath: types.UploadedPlaceholder,
	}
	log.Info("✅ run complete", "url", s.YouTubeURL)
}
