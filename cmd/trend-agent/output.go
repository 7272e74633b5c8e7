package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"trend-shorts-agent/internal/agent"
	"trend-shorts-agent/internal/types"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	busyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	idleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func styleStatus(s types.RunStatus) string {
	switch s {
	case types.StatusSuccess:
		return okStyle.Render(string(s))
	case types.StatusError:
		return failStyle.Render(string(s))
	case types.StatusRunning:
		return busyStyle.Render(string(s))
	default:
		return idleStyle.Render(string(s))
	}
}

func renderRun(run types.AgentRunSummary) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Field", "Value"})
	for _, row := range runRows(run) {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	return tw.Render()
}

// runRows flattens the fields worth showing; empty ones are skipped.
func runRows(run types.AgentRunSummary) [][2]string {
	rows := [][2]string{
		{"Run", run.ID},
		{"Status", styleStatus(run.Status)},
		{"Started", run.StartedAt.Format(time.RFC3339)},
	}
	if run.CompletedAt != nil {
		rows = append(rows, [2]string{"Duration", run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()})
	}
	if run.Topic != nil {
		rows = append(rows, [2]string{"Topic", run.Topic.Title})
	}
	if run.Plan != nil {
		rows = append(rows, [2]string{"Title", run.Plan.Title}, [2]string{"Scenes", fmt.Sprint(len(run.Plan.Scenes))})
	}
	if run.YouTubeURL != "" {
		rows = append(rows, [2]string{"YouTube", run.YouTubeURL})
	}
	if run.Artifacts != nil && run.Artifacts.Workspace != "" {
		rows = append(rows, [2]string{"Workspace", run.Artifacts.Workspace})
	}
	if run.Error != "" {
		rows = append(rows, [2]string{"Error", run.Error})
	}
	return rows
}

func renderTopics(topics []types.TrendTopic) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Title", "Volume", "Entities"})
	for i, t := range topics {
		vol := "-"
		if t.SearchVolume > 0 {
			vol = fmt.Sprint(t.SearchVolume)
		}
		tw.AppendRow(table.Row{i + 1, t.Title, vol, strings.Join(t.EntityNames, ", ")})
	}
	return tw.Render()
}

func renderSnapshot(snap agent.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agent: %s\n", styleStatus(snap.Status))
	if snap.CurrentRun != nil {
		b.WriteString(renderRun(*snap.CurrentRun))
		b.WriteString("\n")
	}
	if len(snap.History) == 0 {
		return b.String()
	}
	tw := table.NewWriter()
	tw.SetTitle("History")
	tw.AppendHeader(table.Row{"Run", "Status", "Started", "Topic", "Result"})
	for _, h := range snap.History {
		topic := ""
		if h.Topic != nil {
			topic = h.Topic.Title
		}
		result := h.YouTubeURL
		if h.Error != "" {
			result = h.Error
		}
		tw.AppendRow(table.Row{h.ID, styleStatus(h.Status), h.StartedAt.Format(time.RFC3339), topic, result})
	}
	b.WriteString(tw.Render())
	return b.String()
}
