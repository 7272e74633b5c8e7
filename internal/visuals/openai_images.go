package visuals

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/llm"
	"trend-shorts-agent/internal/types"
)

// OpenAIImages generates backgrounds with the images API
type OpenAIImages struct {
	client *llm.Client
	model  string
	size   string
}

func NewOpenAIImages(cfg *config.Config, client *llm.Client) *OpenAIImages {
	return &OpenAIImages{client: client, model: cfg.OpenAI.ImageModel, size: cfg.OpenAI.ImageSize}
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (o *OpenAIImages) Generate(ctx context.Context, index int, scene types.VideoScene, dir string) (string, error) {
	req := imageRequest{
		Model:  o.model,
		Prompt: backgroundPrompt(scene),
		Size:   o.size,
		N:      1,
	}
	// gpt-image models always answer in base64 and reject the parameter
	if strings.HasPrefix(o.model, "dall-e") {
		req.ResponseFormat = "b64_json"
	}

	respBytes, err := o.client.PostJSON(ctx, "/images/generations", req, "image generation")
	if err != nil {
		return "", generationFailed(scene, err)
	}
	var resp imageResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return "", generationFailed(scene, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", generationFailed(scene, errors.New("no image returned"))
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", generationFailed(scene, fmt.Errorf("decode image: %w", err))
	}

	outFile := filepath.Join(dir, backgroundName(index, scene, ".png"))
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return "", err
	}
	return outFile, nil
}
