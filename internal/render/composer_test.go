package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/logging"
)

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

func newComposer(r Runner) *Composer {
	return New(config.Default().Render, logging.Discard()).WithRunner(r)
}

func TestSecondsPerSlide(t *testing.T) {
	cases := []struct {
		scenes int
		want   float64
	}{
		{3, 18},
		{5, 11},
		{6, 9},
		{20, 5},
		{0, 5},
	}
	for _, tc := range cases {
		if got := SecondsPerSlide(tc.scenes, 5, 55); got != tc.want {
			t.Fatalf("%d scenes: got %v want %v", tc.scenes, got, tc.want)
		}
	}
}

func TestComposeNoSlidesSkipsEncoder(t *testing.T) {
	called := false
	c := newComposer(func(context.Context, string, []string, io.Writer) error {
		called = true
		return nil
	})
	_, err := c.Compose(context.Background(), Options{Audio: "a.mp3", SecondsPerSlide: 5, FPS: 30, Workspace: t.TempDir()})
	if !errors.Is(err, ErrNoSlides) {
		t.Fatalf("got %v", err)
	}
	if called {
		t.Fatalf("encoder must not run without slides")
	}
}

func writeSlides(t *testing.T, dir string, n int) []string {
	t.Helper()
	var out []string
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("scene-%02d.png", i+1))
		if err := os.WriteFile(p, []byte(fmt.Sprintf("slide-%d", i+1)), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		out = append(out, p)
	}
	return out
}

func TestComposeStagesFramesAndBuildsArgs(t *testing.T) {
	ws := t.TempDir()
	slides := writeSlides(t, t.TempDir(), 3)
	var gotName string
	var gotArgs []string
	c := newComposer(func(_ context.Context, name string, args []string, _ io.Writer) error {
		gotName, gotArgs = name, args
		return nil
	})

	out, err := c.Compose(context.Background(), Options{Slides: slides, Audio: "/w/audio/voiceover.mp3", SecondsPerSlide: 5, FPS: 30, Workspace: ws})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if out != filepath.Join(ws, "render", "video.mp4") {
		t.Fatalf("out = %s", out)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("binary = %s", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{
		"-y -framerate 0.2 -i " + filepath.Join(ws, "sequences", "frame-%04d.png"),
		"-i /w/audio/voiceover.mp3",
		"-c:v libx264 -vf format=yuv420p -preset veryfast -r 30 -c:a aac -shortest",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
	for i := 1; i <= 3; i++ {
		data, err := os.ReadFile(filepath.Join(ws, "sequences", fmt.Sprintf("frame-%04d.png", i)))
		if err != nil || string(data) != fmt.Sprintf("slide-%d", i) {
			t.Fatalf("frame %d = %q, %v", i, data, err)
		}
	}
}

func TestComposeSurfacesExitCode(t *testing.T) {
	slides := writeSlides(t, t.TempDir(), 1)
	c := newComposer(func(_ context.Context, _ string, _ []string, stderr io.Writer) error {
		io.WriteString(stderr, "Unknown encoder 'libx264'\n")
		return exitError{code: 1}
	})
	_, err := c.Compose(context.Background(), Options{Slides: slides, Audio: "a.mp3", SecondsPerSlide: 5, FPS: 30, Workspace: t.TempDir()})
	if !errors.Is(err, ErrEncoderFailed) || !strings.Contains(err.Error(), "ffmpeg exited with status 1") {
		t.Fatalf("got %v", err)
	}
}
