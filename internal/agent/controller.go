package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trend-shorts-agent/internal/types"
)

// ErrConflict is returned by Start while another run is active
var ErrConflict = errors.New("agent is already running")

// Runner executes one pipeline run and returns its terminal summary
type Runner interface {
	Execute(ctx context.Context, forceTopic string, observe func(types.AgentRunSummary)) types.AgentRunSummary
}

// Snapshot is a read-only copy of the agent state
type Snapshot struct {
	Status     types.RunStatus         `json:"status"`
	CurrentRun *types.AgentRunSummary  `json:"currentRun"`
	History    []types.AgentRunSummary `json:"history"`
}

// ScheduledOutcome is the result of a scheduled trigger
type ScheduledOutcome struct {
	Status string                 `json:"status"`
	Reason string                 `json:"reason,omitempty"`
	Run    *types.AgentRunSummary `json:"run,omitempty"`
}

const StatusSkipped = "skipped"

// Controller allows one run at a time and keeps a bounded history.
// It is the only owner of the agent state.
type Controller struct {
	runner Runner
	limit  int
	log    *slog.Logger

	mu      sync.Mutex
	status  types.RunStatus
	current *types.AgentRunSummary
	history []types.AgentRunSummary
}

func NewController(runner Runner, historyLimit int, log *slog.Logger) *Controller {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &Controller{
		runner:  runner,
		limit:   historyLimit,
		log:     log.With("component", "controller"),
		status:  types.StatusIdle,
		history: []types.AgentRunSummary{},
	}
}

// Status never fails and has no side effects
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		Status:  c.status,
		History: make([]types.AgentRunSummary, len(c.history)),
	}
	for i, h := range c.history {
		snap.History[i] = h.Clone()
	}
	if c.current != nil {
		cur := c.current.Clone()
		snap.CurrentRun = &cur
	}
	return snap
}

// Start runs the pipeline and blocks until it finishes. The run is detached
// from ctx cancellation: once started it always runs to completion.
func (c *Controller) Start(ctx context.Context, forceTopic string) (summary types.AgentRunSummary, err error) {
	if !c.tryAcquire() {
		return types.AgentRunSummary{}, ErrConflict
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("runner panicked", "panic", r)
			summary = c.finish(c.crashed(r))
		}
	}()
	summary = c.finish(c.runner.Execute(context.WithoutCancel(ctx), forceTopic, c.observe))
	return summary, nil
}

// crashed builds the error summary for a run whose runner panicked,
// starting from the last observed state when there is one.
func (c *Controller) crashed(r any) types.AgentRunSummary {
	c.mu.Lock()
	var s types.AgentRunSummary
	if c.current != nil && c.current.Status == types.StatusRunning {
		s = c.current.Clone()
	} else {
		s.StartedAt = time.Now().UTC()
	}
	c.mu.Unlock()

	done := time.Now().UTC()
	s.Status = types.StatusError
	s.Error = fmt.Sprintf("panic: %v", r)
	s.CompletedAt = &done
	return s
}

// TriggerScheduled is Start without an override that reports "skipped"
// instead of a conflict.
func (c *Controller) TriggerScheduled(ctx context.Context) ScheduledOutcome {
	run, err := c.Start(ctx, "")
	if errors.Is(err, ErrConflict) {
		c.log.Info("[schedule] run skipped, agent busy")
		return ScheduledOutcome{Status: StatusSkipped, Reason: "already running"}
	}
	return ScheduledOutcome{Status: string(run.Status), Run: &run}
}

func (c *Controller) tryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == types.StatusRunning {
		return false
	}
	c.status = types.StatusRunning
	return true
}

func (c *Controller) observe(s types.AgentRunSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &s
}

func (c *Controller) finish(s types.AgentRunSummary) types.AgentRunSummary {
	if !types.StatusRunning.CanTransition(s.Status) {
		c.log.Error("runner returned non-terminal summary", "run_id", s.ID, "status", s.Status)
		s.Status = types.StatusError
		if s.Error == "" {
			s.Error = "run ended without a terminal status"
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	stored := s.Clone()
	c.current = &stored
	c.history = append([]types.AgentRunSummary{s.Clone()}, c.history...)
	if len(c.history) > c.limit {
		c.history = c.history[:c.limit]
	}
	c.status = s.Status
	return s.Clone()
}
