package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvOpenAIKey           = "OPENAI_API_KEY"
	EnvOpenAIBaseURL       = "OPENAI_BASE_URL"
	EnvGoogleClientID      = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret  = "GOOGLE_CLIENT_SECRET"
	EnvGoogleRefreshToken  = "GOOGLE_REFRESH_TOKEN"
	EnvGoogleRedirectURI   = "GOOGLE_REDIRECT_URI"
	EnvDefaultTrendRegion  = "DEFAULT_TREND_REGION"
	EnvYouTubeCategoryID   = "YOUTUBE_CATEGORY_ID"
	EnvYouTubeDefaultTags  = "YOUTUBE_DEFAULT_TAGS"
	EnvYouTubePrivacy      = "YOUTUBE_PRIVACY_STATUS"
	EnvJWTSecret           = "TREND_AGENT_JWT_SECRET"
	EnvLogLevel            = "LOG_LEVEL"
	defaultRedirectURI     = "https://developers.google.com/oauthplayground"
	defaultTrendsURL       = "https://trends.google.com/trends/api/dailytrends"
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultPollinationsURL = "https://image.pollinations.ai/prompt"
)

var secretKeys = []string{
	EnvOpenAIKey,
	EnvGoogleClientID,
	EnvGoogleClientSecret,
	EnvGoogleRefreshToken,
}

// Privacy statuses accepted by the video platform
var privacyStatuses = []string{"public", "private", "unlisted"}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Agent    AgentConfig    `yaml:"agent"`
	Research ResearchConfig `yaml:"research"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Visuals  VisualsConfig  `yaml:"visuals"`
	Audio    AudioConfig    `yaml:"audio"`
	Render   RenderConfig   `yaml:"render"`
	Upload   UploadConfig   `yaml:"upload"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Secrets holds credentials read from the environment. They are only
	// checked when a stage needs them, see Require.
	Secrets map[string]string `yaml:"-"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
}

type AgentConfig struct {
	HistoryLimit  int    `yaml:"history_limit"`
	WorkspaceRoot string `yaml:"workspace_root"`
}

type ResearchConfig struct {
	Region     string        `yaml:"region"`
	TrendsURL  string        `yaml:"trends_url"`
	Attempts   int           `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
	Reddit     RedditConfig  `yaml:"reddit"`
}

type RedditConfig struct {
	Subreddits []string `yaml:"subreddits"`
	UserAgent  string   `yaml:"user_agent"`
}

type OpenAIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	ScriptModel string        `yaml:"script_model"`
	Temperature float64       `yaml:"temperature"`
	ImageModel  string        `yaml:"image_model"`
	ImageSize   string        `yaml:"image_size"`
	TTSModel    string        `yaml:"tts_model"`
	Voice       string        `yaml:"voice"`
	Timeout     time.Duration `yaml:"timeout"`
}

type VisualsConfig struct {
	Provider        string `yaml:"provider"` // openai | pollinations
	PollinationsURL string `yaml:"pollinations_url"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
}

type AudioConfig struct {
	Provider  string `yaml:"provider"` // openai | edge-tts
	EdgeVoice string `yaml:"edge_voice"`
}

type RenderConfig struct {
	FFmpegPath         string `yaml:"ffmpeg_path"`
	FPS                int    `yaml:"fps"`
	Preset             string `yaml:"preset"`
	MinSecondsPerSlide int    `yaml:"min_seconds_per_slide"`
	TargetSeconds      int    `yaml:"target_seconds"`
}

type UploadConfig struct {
	CategoryID      string   `yaml:"category_id"`
	DefaultTags     []string `yaml:"default_tags"`
	Privacy         string   `yaml:"privacy"`
	DefaultLanguage string   `yaml:"default_language"`
	RedirectURI     string   `yaml:"redirect_uri"`
}

type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MissingEnvError is returned when a required environment variable is absent
type MissingEnvError struct {
	Key    string
	Reason string
}

func (e *MissingEnvError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Missing required environment variable %s", e.Key)
	}
	return fmt.Sprintf("Missing required environment variable %s (%s)", e.Key, e.Reason)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Agent: AgentConfig{
			HistoryLimit:  20,
			WorkspaceRoot: os.TempDir(),
		},
		Research: ResearchConfig{
			Region:     "US",
			TrendsURL:  defaultTrendsURL,
			Attempts:   3,
			RetryDelay: time.Second,
			Timeout:    15 * time.Second,
			Reddit:     RedditConfig{UserAgent: "trend-shorts-agent/1.0"},
		},
		OpenAI: OpenAIConfig{
			BaseURL:     defaultOpenAIBaseURL,
			ScriptModel: "gpt-4.1-mini",
			Temperature: 0.8,
			ImageModel:  "gpt-image-1",
			ImageSize:   "1024x1536",
			TTSModel:    "gpt-4o-mini-tts",
			Voice:       "alloy",
			Timeout:     120 * time.Second,
		},
		Visuals: VisualsConfig{
			Provider:        "openai",
			PollinationsURL: defaultPollinationsURL,
			Width:           1080,
			Height:          1920,
		},
		Audio: AudioConfig{
			Provider:  "openai",
			EdgeVoice: "en-US-GuyNeural",
		},
		Render: RenderConfig{
			FFmpegPath:         "ffmpeg",
			FPS:                30,
			Preset:             "veryfast",
			MinSecondsPerSlide: 5,
			TargetSeconds:      55,
		},
		Upload: UploadConfig{
			Privacy:         "public",
			DefaultLanguage: "en",
			RedirectURI:     defaultRedirectURI,
		},
		Logging: LoggingConfig{Level: "info"},
		Secrets: map[string]string{},
	}
}

// Load reads .env (if present), the YAML file at path (if present) and the
// environment, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnvOverrides(cfg, getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if cfg.Secrets == nil {
		cfg.Secrets = map[string]string{}
	}
	for _, key := range secretKeys {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			cfg.Secrets[key] = v
		}
	}
	if v := getenv(EnvOpenAIBaseURL); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := getenv(EnvGoogleRedirectURI); v != "" {
		cfg.Upload.RedirectURI = v
	}
	if v := getenv(EnvDefaultTrendRegion); v != "" {
		cfg.Research.Region = v
	}
	if v := getenv(EnvYouTubeCategoryID); v != "" {
		cfg.Upload.CategoryID = v
	}
	if v := getenv(EnvYouTubeDefaultTags); v != "" {
		cfg.Upload.DefaultTags = splitList(v)
	}
	if v := getenv(EnvYouTubePrivacy); v != "" {
		cfg.Upload.Privacy = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv(EnvJWTSecret); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks values that cannot be defaulted sensibly
func (c *Config) Validate() error {
	if !contains(privacyStatuses, c.Upload.Privacy) {
		return fmt.Errorf("invalid %s %q: must be one of %s", EnvYouTubePrivacy, c.Upload.Privacy, strings.Join(privacyStatuses, ", "))
	}
	if c.Agent.HistoryLimit <= 0 {
		return fmt.Errorf("agent.history_limit must be positive, got %d", c.Agent.HistoryLimit)
	}
	if c.Research.Attempts <= 0 {
		return fmt.Errorf("research.attempts must be positive, got %d", c.Research.Attempts)
	}
	if c.Visuals.Width <= 0 || c.Visuals.Height <= 0 {
		return fmt.Errorf("visuals size must be positive, got %dx%d", c.Visuals.Width, c.Visuals.Height)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS)
	}
	return nil
}

// Require returns the secret stored under key, or a *MissingEnvError naming it.
func (c *Config) Require(key, reason string) (string, error) {
	if v := c.Secrets[key]; v != "" {
		return v, nil
	}
	return "", &MissingEnvError{Key: key, Reason: reason}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
