package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/llm"
	"trend-shorts-agent/internal/types"
)

// ErrEmptyAudio is returned when the speech engine produced no audio
var ErrEmptyAudio = errors.New("speech synthesis returned empty audio")

// Engine turns the full narration text into one audio file at outFile
type Engine interface {
	Speak(ctx context.Context, text, outFile string) error
}

// Synthesizer makes one speech request for all scenes
type Synthesizer struct {
	engine Engine
	log    *slog.Logger
}

func New(engine Engine, log *slog.Logger) *Synthesizer {
	return &Synthesizer{engine: engine, log: log.With("component", "audio")}
}

// NewEngine picks the speech engine named in the config
func NewEngine(cfg *config.Config, client *llm.Client) (Engine, error) {
	switch cfg.Audio.Provider {
	case "", "openai":
		return NewOpenAISpeech(cfg, client), nil
	case "edge-tts":
		return NewEdgeTTS(cfg.Audio.EdgeVoice), nil
	default:
		return nil, fmt.Errorf("unknown audio provider %q", cfg.Audio.Provider)
	}
}

// JoinVoiceovers concatenates voiceover lines in scene order, separated by a blank line
func JoinVoiceovers(scenes []types.VideoScene) string {
	lines := make([]string, 0, len(scenes))
	for _, s := range scenes {
		lines = append(lines, s.Voiceover)
	}
	return strings.Join(lines, "\n\n")
}

// Synthesize writes workspace/audio/voiceover.mp3 and returns its path
func (s *Synthesizer) Synthesize(ctx context.Context, scenes []types.VideoScene, workspace string) (string, error) {
	audioDir := filepath.Join(workspace, "audio")
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	outFile := filepath.Join(audioDir, "voiceover.mp3")

	text := JoinVoiceovers(scenes)
	s.log.Info("[audio] synthesizing narration", "scenes", len(scenes), "chars", len(text))
	if err := s.engine.Speak(ctx, text, outFile); err != nil {
		return "", err
	}

	fi, err := os.Stat(outFile)
	if err != nil || fi.Size() == 0 {
		return "", ErrEmptyAudio
	}
	s.log.Info("[audio] ✅ narration ready", "path", outFile, "bytes", fi.Size())
	return outFile, nil
}
