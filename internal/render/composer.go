package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"trend-shorts-agent/internal/config"
)

var (
	// ErrNoSlides is returned before ffmpeg is started when there is nothing to encode
	ErrNoSlides = errors.New("no slides to compose")
	// ErrEncoderFailed wraps a non-zero ffmpeg exit
	ErrEncoderFailed = errors.New("video encoder failed")
)

const framePattern = "frame-%04d.png"

// Runner executes a command, writing its stderr to stderr
type Runner func(ctx context.Context, name string, args []string, stderr io.Writer) error

func execRunner(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr
	return cmd.Run()
}

// Composer assembles slides and narration into a vertical MP4 with ffmpeg
type Composer struct {
	ffmpeg string
	preset string
	run    Runner
	log    *slog.Logger
}

func New(cfg config.RenderConfig, log *slog.Logger) *Composer {
	return &Composer{
		ffmpeg: cfg.FFmpegPath,
		preset: cfg.Preset,
		run:    execRunner,
		log:    log.With("component", "render"),
	}
}

// WithRunner swaps the process runner, used by tests
func (c *Composer) WithRunner(r Runner) *Composer {
	c.run = r
	return c
}

// Options for one encode
type Options struct {
	Slides          []string
	Audio           string
	SecondsPerSlide float64
	FPS             int
	Workspace       string
}

// SecondsPerSlide spreads target seconds over the scenes, never going below min
func SecondsPerSlide(scenes, min, target int) float64 {
	if scenes <= 0 {
		return float64(min)
	}
	return math.Max(float64(min), math.Floor(float64(target)/float64(scenes)))
}

// CheckDependencies verifies ffmpeg is on PATH
func (c *Composer) CheckDependencies() error {
	if _, err := exec.LookPath(c.ffmpeg); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", c.ffmpeg, err)
	}
	return nil
}

// Compose writes workspace/render/video.mp4 and returns its path
func (c *Composer) Compose(ctx context.Context, opts Options) (string, error) {
	if len(opts.Slides) == 0 {
		return "", ErrNoSlides
	}
	if opts.SecondsPerSlide <= 0 || opts.FPS <= 0 {
		return "", fmt.Errorf("invalid timing: %v s/slide at %d fps", opts.SecondsPerSlide, opts.FPS)
	}

	seqDir := filepath.Join(opts.Workspace, "sequences")
	renderDir := filepath.Join(opts.Workspace, "render")
	for _, dir := range []string{seqDir, renderDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}

	// the image2 demuxer needs a contiguous numeric sequence
	for i, slide := range opts.Slides {
		dst := filepath.Join(seqDir, fmt.Sprintf(framePattern, i+1))
		if err := copyFile(slide, dst); err != nil {
			return "", fmt.Errorf("stage slide %d: %w", i+1, err)
		}
	}

	outFile := filepath.Join(renderDir, "video.mp4")
	args := buildArgs(filepath.Join(seqDir, framePattern), opts.Audio, outFile, opts.SecondsPerSlide, opts.FPS, c.preset)

	c.log.Info("[render] encoding video", "slides", len(opts.Slides), "seconds_per_slide", opts.SecondsPerSlide, "fps", opts.FPS)
	var stderr bytes.Buffer
	if err := c.run(ctx, c.ffmpeg, args, &stderr); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			c.log.Error("[render] ffmpeg failed", "stderr", tail(stderr.String(), 20))
			return "", fmt.Errorf("%w: ffmpeg exited with status %d", ErrEncoderFailed, exitErr.ExitCode())
		}
		return "", fmt.Errorf("run ffmpeg: %w", err)
	}

	c.log.Info("[render] ✅ video ready", "path", outFile)
	return outFile, nil
}

func buildArgs(pattern, audio, outFile string, secondsPerSlide float64, fps int, preset string) []string {
	if preset == "" {
		preset = "veryfast"
	}
	return []string{
		"-y",
		"-framerate", strconv.FormatFloat(1/secondsPerSlide, 'f', -1, 64),
		"-i", pattern,
		"-i", audio,
		"-c:v", "libx264",
		"-vf", "format=yuv420p",
		"-preset", preset,
		"-r", strconv.Itoa(fps),
		"-c:a", "aac",
		"-shortest",
		outFile,
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
