package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/llm"
	"trend-shorts-agent/internal/types"
)

// ErrMalformedResponse is returned when the model output is missing or does
// not match the plan schema.
var ErrMalformedResponse = errors.New("malformed plan response")

const (
	minScenes   = 3
	maxScenes   = 6
	maxHashtags = 10
)

const systemPrompt = `You are a viral content strategist who writes short-form vertical video scripts for faceless channels.
You turn a trending topic into a tight, punchy plan: a scroll-stopping hook, scenes that each land one idea, and a clear call to action.
Voiceover lines are spoken aloud, so keep them conversational and free of hashtags or emoji.`

// Planner drafts a VideoPlan for a topic
type Planner struct {
	cfg    *config.Config
	client *llm.Client
	log    *slog.Logger
}

func New(cfg *config.Config, client *llm.Client, log *slog.Logger) *Planner {
	return &Planner{cfg: cfg, client: client, log: log.With("component", "script")}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

// Plan asks the model for a plan and validates it
func (p *Planner) Plan(ctx context.Context, topic types.TrendTopic) (*types.VideoPlan, error) {
	p.log.Info("[script] drafting plan", "topic", topic.Title, "model", p.cfg.OpenAI.ScriptModel)

	reqBody := chatRequest{
		Model: p.cfg.OpenAI.ScriptModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(topic)},
		},
		Temperature: p.cfg.OpenAI.Temperature,
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchema{Name: "video_plan", Strict: true, Schema: planSchema()},
		},
	}

	respBytes, err := p.client.PostJSON(ctx, "/chat/completions", reqBody, "script planning")
	if err != nil {
		return nil, fmt.Errorf("plan request: %w", err)
	}

	plan, err := parsePlan(respBytes)
	if err != nil {
		return nil, err
	}
	p.log.Info("[script] ✅ plan ready", "title", plan.Title, "scenes", len(plan.Scenes))
	return plan, nil
}

func buildUserPrompt(topic types.TrendTopic) string {
	var sb strings.Builder
	sb.WriteString("Create a 45-60 second vertical video plan about this trending topic.\n\n")
	sb.WriteString(fmt.Sprintf("TOPIC: %s\n", topic.Title))
	sb.WriteString(fmt.Sprintf("CONTEXT: %s\n", topic.Summary))
	if len(topic.EntityNames) > 0 {
		sb.WriteString(fmt.Sprintf("RELATED: %s\n", strings.Join(topic.EntityNames, ", ")))
	}
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- A hook of at most 120 characters that makes viewers stop scrolling.\n")
	sb.WriteString("- 3 to 5 scenes, each with a short headline, one voiceover line, a short on-screen caption and a visual prompt for a background image.\n")
	sb.WriteString("- 5 to 8 relevant hashtags.\n")
	sb.WriteString("- A call to action that invites comments or follows.\n")
	return sb.String()
}

func planSchema() map[string]any {
	str := map[string]any{"type": "string"}
	scene := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":           str,
			"headline":     str,
			"voiceover":    str,
			"onScreenText": str,
			"visualPrompt": str,
		},
		"required":             []string{"id", "headline", "voiceover", "onScreenText", "visualPrompt"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":        str,
			"hook":         str,
			"title":        str,
			"description":  str,
			"hashtags":     map[string]any{"type": "array", "items": str, "minItems": 3, "maxItems": maxHashtags},
			"callToAction": str,
			"scenes":       map[string]any{"type": "array", "items": scene, "minItems": minScenes, "maxItems": maxScenes},
		},
		"required":             []string{"topic", "hook", "title", "description", "hashtags", "callToAction", "scenes"},
		"additionalProperties": false,
	}
}

func parsePlan(respBytes []byte) (*types.VideoPlan, error) {
	var resp chatResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode completion: %v", ErrMalformedResponse, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", ErrMalformedResponse, msg.Refusal)
	}
	content := cleanJSON(msg.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	var plan types.VideoPlan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrMalformedResponse, err, content[:min(200, len(content))])
	}
	if err := validatePlan(&plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &plan, nil
}

func validatePlan(p *types.VideoPlan) error {
	for name, v := range map[string]string{
		"topic":        p.Topic,
		"hook":         p.Hook,
		"title":        p.Title,
		"description":  p.Description,
		"callToAction": p.CallToAction,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("missing %s", name)
		}
	}
	if len(p.Hashtags) == 0 || len(p.Hashtags) > maxHashtags {
		return fmt.Errorf("expected 1-%d hashtags, got %d", maxHashtags, len(p.Hashtags))
	}
	for i, h := range p.Hashtags {
		if strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "#")) == "" {
			return fmt.Errorf("hashtag %d is blank", i)
		}
	}
	if len(p.Scenes) < minScenes || len(p.Scenes) > maxScenes {
		return fmt.Errorf("expected %d-%d scenes, got %d", minScenes, maxScenes, len(p.Scenes))
	}
	seen := make(map[string]bool, len(p.Scenes))
	for i, s := range p.Scenes {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("scene %d has no id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate scene id %q", s.ID)
		}
		seen[s.ID] = true
		for field, v := range map[string]string{
			"headline":     s.Headline,
			"voiceover":    s.Voiceover,
			"onScreenText": s.OnScreenText,
			"visualPrompt": s.VisualPrompt,
		} {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("scene %q is missing %s", s.ID, field)
			}
		}
	}
	return nil
}

// cleanJSON strips markdown fences if the model wraps its answer in ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
