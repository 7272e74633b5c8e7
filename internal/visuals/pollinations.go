package visuals

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trend-shorts-agent/internal/types"
)

// Pollinations generates backgrounds via Pollinations.ai (free, no key needed)
type Pollinations struct {
	baseURL       string
	width, height int
	httpClient    *http.Client
	retryDelay    time.Duration
	log           *slog.Logger
}

func NewPollinations(baseURL string, width, height int, log *slog.Logger) *Pollinations {
	return &Pollinations{
		baseURL:    strings.TrimRight(baseURL, "/"),
		width:      width,
		height:     height,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retryDelay: 3 * time.Second,
		log:        log.With("component", "visuals"),
	}
}

func (p *Pollinations) Generate(ctx context.Context, index int, scene types.VideoScene, dir string) (string, error) {
	// Format: {base}/{encoded_prompt}?params
	imageURL := fmt.Sprintf(
		"%s/%s?width=%d&height=%d&nologo=true&model=flux&seed=%d",
		p.baseURL,
		url.PathEscape(backgroundPrompt(scene)),
		p.width, p.height,
		index*42+7, // deterministic seed per scene
	)
	outFile := filepath.Join(dir, backgroundName(index, scene, ".jpg"))

	// Pollinations occasionally times out
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.download(ctx, imageURL, outFile)
		if err == nil {
			return outFile, nil
		}
		p.log.Warn("[visuals] pollinations attempt failed", "scene", scene.ID, "attempt", attempt, "error", err)
		if attempt == 3 {
			break
		}
		select {
		case <-ctx.Done():
			return "", generationFailed(scene, ctx.Err())
		case <-time.After(time.Duration(attempt) * p.retryDelay):
		}
	}
	return "", generationFailed(scene, fmt.Errorf("after 3 attempts: %w", err))
}

func (p *Pollinations) download(ctx context.Context, imageURL, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; TrendShortsAgent/1.0)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from Pollinations", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// an error page instead of an image
	if len(data) < 100 {
		return fmt.Errorf("response too small (%d bytes)", len(data))
	}
	return os.WriteFile(outFile, data, 0o644)
}
