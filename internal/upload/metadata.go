package upload

import (
	"strings"
	"unicode/utf8"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/types"
)

// YouTube limits
const (
	titleMaxRunes       = 100
	descriptionMaxBytes = 5000
)

// Category ids used when none is configured
const (
	categoryTravelEvents  = "19"
	categoryEntertainment = "24"
)

// Metadata holds everything sent with the upload
type Metadata struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	CategoryID      string   `json:"categoryId"`
	Privacy         string   `json:"privacy"`
	DefaultLanguage string   `json:"defaultLanguage"`
}

// BuildMetadata derives upload metadata from the plan and its source topic
func BuildMetadata(plan *types.VideoPlan, topic *types.TrendTopic, cfg config.UploadConfig) Metadata {
	description := strings.Join([]string{
		plan.Hook,
		plan.Description,
		strings.Join(plan.Hashtags, " "),
	}, "\n\n")

	var tags []string
	for _, h := range plan.Hashtags {
		tags = append(tags, strings.TrimPrefix(strings.TrimSpace(h), "#"))
	}
	if topic != nil {
		tags = append(tags, topic.Title)
		tags = append(tags, topic.EntityNames...)
	}
	tags = append(tags, cfg.DefaultTags...)

	privacy := cfg.Privacy
	if privacy == "" {
		privacy = "public"
	}
	lang := cfg.DefaultLanguage
	if lang == "" {
		lang = "en"
	}

	return Metadata{
		Title:           truncateRunes(plan.Title, titleMaxRunes),
		Description:     truncateBytes(description, descriptionMaxBytes),
		Tags:            dedupe(tags),
		CategoryID:      category(cfg.CategoryID, topic),
		Privacy:         privacy,
		DefaultLanguage: lang,
	}
}

func category(configured string, topic *types.TrendTopic) string {
	if configured != "" {
		return configured
	}
	if topic != nil && strings.Contains(strings.ToLower(topic.Title), "crypto") {
		return categoryTravelEvents
	}
	return categoryEntertainment
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// truncateBytes cuts s to at most n bytes without splitting a rune
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
