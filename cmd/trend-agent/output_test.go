package main

import (
	"strings"
	"testing"
	"time"

	"trend-shorts-agent/internal/agent"
	"trend-shorts-agent/internal/types"
)

func TestRunRowsSkipsEmptyFields(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rows := runRows(types.AgentRunSummary{ID: "ab12cd34", Status: types.StatusRunning, StartedAt: start})
	if len(rows) != 3 {
		t.Fatalf("rows = %v", rows)
	}

	done := start.Add(95 * time.Second)
	rows = runRows(types.AgentRunSummary{
		ID:          "ab12cd34",
		Status:      types.StatusError,
		StartedAt:   start,
		CompletedAt: &done,
		Topic:       &types.TrendTopic{Title: "Solar Eclipse"},
		Error:       "render: ffmpeg exited with status 1",
		Artifacts:   &types.RunArtifacts{Workspace: "/tmp/trend-agent/run-1"},
	})
	got := map[string]string{}
	for _, r := range rows {
		got[r[0]] = r[1]
	}
	if got["Duration"] != "1m35s" || got["Topic"] != "Solar Eclipse" || got["Workspace"] == "" || got["Error"] == "" {
		t.Fatalf("rows = %v", got)
	}
	if _, ok := got["YouTube"]; ok {
		t.Fatalf("unexpected YouTube row")
	}
}

func TestRenderSnapshotHistory(t *testing.T) {
	out := renderSnapshot(agent.Snapshot{
		Status: types.StatusSuccess,
		History: []types.AgentRunSummary{
			{ID: "r2", Status: types.StatusSuccess, YouTubeURL: "https://www.youtube.com/watch?v=x"},
			{ID: "r1", Status: types.StatusError, Error: "trends: boom"},
		},
	})
	for _, want := range []string{"r2", "r1", "watch?v=x", "trends: boom"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}

func TestRenderTopics(t *testing.T) {
	out := renderTopics([]types.TrendTopic{
		{Title: "Solar Eclipse", SearchVolume: 200000, EntityNames: []string{"NASA", "Moon"}},
		{Title: "Quiet Topic"},
	})
	if !strings.Contains(out, "200000") || !strings.Contains(out, "NASA, Moon") || !strings.Contains(out, "-") {
		t.Fatalf("table =\n%s", out)
	}
}
