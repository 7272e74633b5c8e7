package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// EdgeTTS shells out to the edge-tts CLI (free Microsoft TTS)
type EdgeTTS struct {
	binary string
	voice  string
}

func NewEdgeTTS(voice string) *EdgeTTS {
	return &EdgeTTS{binary: "edge-tts", voice: voice}
}

func (e *EdgeTTS) Speak(ctx context.Context, text, outFile string) error {
	if _, err := exec.LookPath(e.binary); err != nil {
		return fmt.Errorf("edge-tts not found, install it with: pip install edge-tts: %w", err)
	}
	cmd := exec.CommandContext(ctx, e.binary,
		"--voice", e.voice,
		"--text", text,
		"--write-media", outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("edge-tts: %w", err)
	}
	return nil
}
