package types

import "time"

// TrendTopic is one trending search candidate
type TrendTopic struct {
	Title        string   `json:"title"`
	EntityNames  []string `json:"entityNames"`
	Summary      string   `json:"summary"`
	SearchVolume int      `json:"searchVolume"`
}

// VideoScene is one narrated beat of a plan
type VideoScene struct {
	ID           string `json:"id"`
	Headline     string `json:"headline"`
	Voiceover    string `json:"voiceover"`
	OnScreenText string `json:"onScreenText"`
	VisualPrompt string `json:"visualPrompt"`
}

// VideoPlan is the structured script returned by the planner
type VideoPlan struct {
	Topic        string       `json:"topic"`
	Hook         string       `json:"hook"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Hashtags     []string     `json:"hashtags"`
	Scenes       []VideoScene `json:"scenes"`
	CallToAction string       `json:"callToAction"`
}

// RunStatus is the lifecycle state of the agent or of a single run
type RunStatus string

const (
	StatusIdle    RunStatus = "idle"
	StatusRunning RunStatus = "running"
	StatusSuccess RunStatus = "success"
	StatusError   RunStatus = "error"
)

var transitions = map[RunStatus][]RunStatus{
	StatusRunning: {StatusSuccess, StatusError},
}

// CanTransition reports whether a run may move from one status to another.
// Terminal statuses have no outgoing transitions.
func (s RunStatus) CanTransition(to RunStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal is true for success and error
func (s RunStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Placeholders written over artifact paths once a successful run is cleaned up
const (
	CleanedPlaceholder  = "(cleaned)"
	UploadedPlaceholder = "(uploaded)"
)

// RunArtifacts holds local paths produced during a run
type RunArtifacts struct {
	Workspace string `json:"workspace,omitempty"`
	AudioPath string `json:"audioPath,omitempty"`
	VideoPath string `json:"videoPath,omitempty"`
}

// AgentRunSummary tracks the full state of one pipeline run
type AgentRunSummary struct {
	ID             string        `json:"id"`
	Status         RunStatus     `json:"status"`
	StartedAt      time.Time     `json:"startedAt"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty"`
	Topic          *TrendTopic   `json:"topic,omitempty"`
	Plan           *VideoPlan    `json:"plan,omitempty"`
	YouTubeVideoID string        `json:"youtubeVideoId,omitempty"`
	YouTubeURL     string        `json:"youtubeUrl,omitempty"`
	Error          string        `json:"error,omitempty"`
	Artifacts      *RunArtifacts `json:"artifacts,omitempty"`
}

// Clone returns a copy that shares no mutable fields with s.
// Topic and Plan are never mutated after they are attached, so they are shared.
func (s AgentRunSummary) Clone() AgentRunSummary {
	out := s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	if s.Artifacts != nil {
		a := *s.Artifacts
		out.Artifacts = &a
	}
	return out
}
