// Package schedule fires the agent on a cron expression, the in-process
// equivalent of hitting GET /api/cron from an external scheduler.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"trend-shorts-agent/internal/agent"
)

// Trigger is satisfied by *agent.Controller.
type Trigger interface {
	TriggerScheduled(ctx context.Context) agent.ScheduledOutcome
}

type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	log     *slog.Logger
	spec    string
}

// New parses spec (standard five-field cron) in the given timezone.
// An empty timezone means UTC.
func New(spec, timezone string, trigger Trigger, log *slog.Logger) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("cron expression is empty")
	}
	loc := time.UTC
	if tz := strings.TrimSpace(timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		loc = l
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		trigger: trigger,
		log:     log,
		spec:    spec,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("[schedule] started", "cron", s.spec, "next", s.Next())
}

// Stop halts the scheduler and waits for a job in flight, or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("[schedule] stop timed out with a run in flight")
	}
}

// Next reports the next activation, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	out := s.trigger.TriggerScheduled(context.Background())
	switch {
	case out.Status == agent.StatusSkipped:
		s.log.Info("[schedule] skipped", "reason", out.Reason)
	case out.Run != nil:
		s.log.Info("[schedule] run finished", "run_id", out.Run.ID, "status", out.Run.Status, "url", out.Run.YouTubeURL)
	default:
		s.log.Warn("[schedule] run finished without summary", "status", out.Status)
	}
}
