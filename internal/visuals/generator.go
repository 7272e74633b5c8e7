package visuals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/llm"
	"trend-shorts-agent/internal/types"
)

// ErrGenerationFailed is returned when no background image could be produced for a scene
var ErrGenerationFailed = errors.New("image generation failed")

// ImageGenerator writes a background image for a scene into dir and returns its path
type ImageGenerator interface {
	Generate(ctx context.Context, index int, scene types.VideoScene, dir string) (string, error)
}

// NewGenerator picks the image provider named in the config
func NewGenerator(cfg *config.Config, client *llm.Client, log *slog.Logger) (ImageGenerator, error) {
	switch cfg.Visuals.Provider {
	case "", "openai":
		return NewOpenAIImages(cfg, client), nil
	case "pollinations":
		return NewPollinations(cfg.Visuals.PollinationsURL, cfg.Visuals.Width, cfg.Visuals.Height, log), nil
	default:
		return nil, fmt.Errorf("unknown visuals provider %q", cfg.Visuals.Provider)
	}
}

func backgroundPrompt(scene types.VideoScene) string {
	return fmt.Sprintf("Create a cinematic, vertical background image for a faceless video scene.\n"+
		"Scene headline: %s\n"+
		"Visual direction: %s\n"+
		"Style: Modern, high-contrast lighting, cinematic depth of field, suitable for overlaying bold typography.",
		scene.Headline, scene.VisualPrompt)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func backgroundName(index int, scene types.VideoScene, ext string) string {
	id := unsafeFileChars.ReplaceAllString(scene.ID, "-")
	if id == "" || id == "-" {
		id = "scene"
	}
	return fmt.Sprintf("%02d-%s%s", index+1, id, ext)
}

func generationFailed(scene types.VideoScene, err error) error {
	return fmt.Errorf("%w for scene %q: %w", ErrGenerationFailed, scene.ID, err)
}
