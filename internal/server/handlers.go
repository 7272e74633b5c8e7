package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"trend-shorts-agent/internal/agent"
	"trend-shorts-agent/internal/types"
)

const (
	runPath    = "/api/agent/run"
	statusPath = "/api/agent/status"
	cronPath   = "/api/cron"
	eventsPath = "/api/agent/events"
	healthPath = "/healthz"
)

// runRequest is decoded leniently: a body that is not JSON, or a title
// that is not a string, means no override.
type runRequest struct {
	ForceTopicTitle any `json:"forceTopicTitle"`
}

func forceTopicFrom(raw []byte) string {
	var req runRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ""
	}
	title, _ := req.ForceTopicTitle.(string)
	return strings.TrimSpace(title)
}

type runOutput struct {
	Status int
	Body   types.AgentRunSummary `json:"body"`
}

type cronResponse struct {
	Status string                 `json:"status" example:"skipped"`
	Reason string                 `json:"reason,omitempty" example:"already running"`
	Run    *types.AgentRunSummary `json:"run,omitempty"`
}

type cronOutput struct {
	Status int
	Body   cronResponse `json:"body"`
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        healthPath,
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerStatus(api huma.API, a Agent) {
	huma.Register(api, huma.Operation{
		OperationID: "agent-status",
		Method:      http.MethodGet,
		Path:        statusPath,
		Summary:     "Current status, current run and run history",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body agent.Snapshot `json:"body"`
	}, error) {
		return &struct {
			Body agent.Snapshot `json:"body"`
		}{Body: a.Status()}, nil
	})
}

func registerRun(api huma.API, a Agent) {
	huma.Register(api, huma.Operation{
		OperationID: "agent-run",
		Method:      http.MethodPost,
		Path:        runPath,
		Summary:     "Run the pipeline once and wait for it to finish",
		Description: `Optional JSON body {"forceTopicTitle": "..."} picks a trending topic by title. Any other body runs without an override.`,
		Errors:      []int{http.StatusUnauthorized, http.StatusConflict, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		RawBody []byte
	}) (*runOutput, error) {
		run, err := a.Start(ctx, forceTopicFrom(input.RawBody))
		if errors.Is(err, agent.ErrConflict) {
			return nil, newAPIError(http.StatusConflict, "conflict", "Agent is already running")
		}
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "", err.Error())
		}
		return &runOutput{Status: runStatusCode(run.Status), Body: run}, nil
	})
}

func registerCron(api huma.API, a Agent) {
	huma.Register(api, huma.Operation{
		OperationID: "agent-cron",
		Method:      http.MethodGet,
		Path:        cronPath,
		Summary:     "Scheduled trigger; skipped when a run is active",
		Errors:      []int{http.StatusUnauthorized, http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*cronOutput, error) {
		out := a.TriggerScheduled(ctx)
		if out.Status == agent.StatusSkipped {
			return &cronOutput{Status: http.StatusOK, Body: cronResponse{Status: out.Status, Reason: out.Reason}}, nil
		}
		code := http.StatusInternalServerError
		if out.Run != nil {
			code = runStatusCode(out.Run.Status)
		}
		return &cronOutput{Status: code, Body: cronResponse{Status: out.Status, Run: out.Run}}, nil
	})
}
