package audio

import (
	"context"
	"fmt"
	"os"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/llm"
)

// OpenAISpeech uses the audio/speech endpoint
type OpenAISpeech struct {
	client *llm.Client
	model  string
	voice  string
}

func NewOpenAISpeech(cfg *config.Config, client *llm.Client) *OpenAISpeech {
	return &OpenAISpeech{client: client, model: cfg.OpenAI.TTSModel, voice: cfg.OpenAI.Voice}
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

func (o *OpenAISpeech) Speak(ctx context.Context, text, outFile string) error {
	data, err := o.client.PostJSON(ctx, "/audio/speech", speechRequest{
		Model:          o.model,
		Voice:          o.voice,
		Input:          text,
		ResponseFormat: "mp3",
	}, "speech synthesis")
	if err != nil {
		return fmt.Errorf("speech request: %w", err)
	}
	if len(data) == 0 {
		return ErrEmptyAudio
	}
	return os.WriteFile(outFile, data, 0o644)
}
