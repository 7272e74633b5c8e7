package visuals

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"trend-shorts-agent/internal/types"
)

// Renderer turns plan scenes into finished slide images
type Renderer struct {
	gen        ImageGenerator
	compositor *Compositor
	log        *slog.Logger
}

func NewRenderer(gen ImageGenerator, compositor *Compositor, log *slog.Logger) *Renderer {
	return &Renderer{gen: gen, compositor: compositor, log: log.With("component", "visuals")}
}

// RenderScenes generates one slide per scene, sequentially. The returned
// paths are in scene order.
func (r *Renderer) RenderScenes(ctx context.Context, scenes []types.VideoScene, workspace string) ([]string, error) {
	bgDir := filepath.Join(workspace, "backgrounds")
	slideDir := filepath.Join(workspace, "slides")
	for _, dir := range []string{bgDir, slideDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	slides := make([]string, 0, len(scenes))
	for i, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.log.Info("[visuals] generating background", "scene", scene.ID, "index", i+1, "total", len(scenes))
		bg, err := r.gen.Generate(ctx, i, scene, bgDir)
		if err != nil {
			return nil, err
		}

		slide := filepath.Join(slideDir, fmt.Sprintf("scene-%02d.png", i+1))
		if err := r.compositor.Compose(bg, scene, slide); err != nil {
			return nil, fmt.Errorf("compose scene %q: %w", scene.ID, err)
		}
		slides = append(slides, slide)
	}
	r.log.Info("[visuals] ✅ slides ready", "count", len(slides))
	return slides, nil
}
