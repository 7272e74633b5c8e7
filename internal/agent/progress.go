package agent

import (
	"sync"
	"time"

	"trend-shorts-agent/internal/types"
)

// Event types
const (
	EventRunStarted     = "run_started"
	EventStageStarted   = "stage_started"
	EventStageCompleted = "stage_completed"
	EventStageFailed    = "stage_failed"
	EventRunFinished    = "run_finished"
)

// Event is one progress notification for a run
type Event struct {
	RunID   string          `json:"runId"`
	Type    string          `json:"type"`
	Stage   string          `json:"stage,omitempty"`
	Status  types.RunStatus `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Time    time.Time       `json:"time"`
}

// Progress fans run events out to subscribers. Slow subscribers miss events
// rather than blocking the pipeline.
type Progress struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func NewProgress() *Progress {
	return &Progress{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a function that unsubscribes and closes it
func (p *Progress) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	p.mu.Lock()
	id := p.next
	p.next++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(ch)
		})
	}
}

func (p *Progress) Publish(e Event) {
	if p == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
