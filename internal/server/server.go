package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"trend-shorts-agent/internal/agent"
	"trend-shorts-agent/internal/types"
)

// Agent is the run controller as seen by the HTTP layer
type Agent interface {
	Status() agent.Snapshot
	Start(ctx context.Context, forceTopic string) (types.AgentRunSummary, error)
	TriggerScheduled(ctx context.Context) agent.ScheduledOutcome
}

// Config for the HTTP API handler.
type Config struct {
	Agent     Agent
	Progress  *agent.Progress
	JWTSecret string
	Logger    *slog.Logger
}

type apiErrorBody struct {
	Code    string `json:"code" example:"conflict"`
	Message string `json:"message" example:"Agent is already running"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the agent API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Agent == nil {
		return nil, errors.New("server: agent is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "server")

	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(cfg.JWTSecret, log))

	hcfg := huma.DefaultConfig("Trend Shorts Agent API", "1.0.0")
	api := humachi.New(router, hcfg)

	registerHealth(api)
	registerStatus(api, cfg.Agent)
	registerRun(api, cfg.Agent)
	registerCron(api, cfg.Agent)
	if cfg.Progress != nil {
		router.Get(eventsPath, eventsHandler(cfg.Progress, log))
	}
	return router, nil
}

func newAPIError(status int, code, message string) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message}}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// runStatusCode maps a terminal run to the trigger response code
func runStatusCode(s types.RunStatus) int {
	if s == types.StatusSuccess {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
