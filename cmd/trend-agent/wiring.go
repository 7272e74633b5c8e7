package main

import (
	"fmt"
	"log/slog"

	"trend-shorts-agent/internal/agent"
	"trend-shorts-agent/internal/audio"
	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/llm"
	"trend-shorts-agent/internal/render"
	"trend-shorts-agent/internal/research"
	"trend-shorts-agent/internal/script"
	"trend-shorts-agent/internal/upload"
	"trend-shorts-agent/internal/visuals"
)

// buildController assembles every stage from cfg. Secrets are not checked
// here; each stage asks for its own when it first needs it.
func buildController(cfg *config.Config, log *slog.Logger) (*agent.Controller, *agent.Progress, error) {
	client := llm.New(cfg)

	gen, err := visuals.NewGenerator(cfg, client, log)
	if err != nil {
		return nil, nil, err
	}
	compositor, err := visuals.NewCompositor(cfg.Visuals.Width, cfg.Visuals.Height)
	if err != nil {
		return nil, nil, fmt.Errorf("load slide fonts: %w", err)
	}
	engine, err := audio.NewEngine(cfg, client)
	if err != nil {
		return nil, nil, err
	}
	composer := render.New(cfg.Render, log)
	if err := composer.CheckDependencies(); err != nil {
		log.Warn("renderer dependency missing, runs will fail at the render stage", "err", err)
	}

	progress := agent.NewProgress()
	pipeline := agent.NewPipeline(agent.PipelineDeps{
		Trends:    research.New(cfg, log),
		Planner:   script.New(cfg, client, log),
		Renderer:  visuals.NewRenderer(gen, compositor, log),
		Narrator:  audio.New(engine, log),
		Composer:  composer,
		Publisher: upload.New(cfg, log),
	}, agent.PipelineConfig{
		Region:             cfg.Research.Region,
		WorkspaceRoot:      cfg.Agent.WorkspaceRoot,
		MinSecondsPerSlide: cfg.Render.MinSecondsPerSlide,
		TargetSeconds:      cfg.Render.TargetSeconds,
		FPS:                cfg.Render.FPS,
	}, progress, log)

	return agent.NewController(pipeline, cfg.Agent.HistoryLimit, log), progress, nil
}
