package pipeline

import (
	"sync"
	"time"
)

// Progress is the live view of a run, shared with the status server.
type Progress struct {
	mu        sync.RWMutex
	runID     string
	startedAt time.Time
	total     int
	done      int
	succeeded int
	failed    int
	skipped   int
}

// Snapshot is a point-in-time copy of run progress.
type Snapshot struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Total     int       `json:"total"`
	Done      int       `json:"done"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
}

func (p *Progress) begin(runID string, startedAt time.Time, total, done int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runID = runID
	p.startedAt = startedAt
	p.total = total
	p.done = done
	p.succeeded = 0
	p.failed = 0
	p.skipped = 0
}

func (p *Progress) record(outcome string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	switch outcome {
	case outcomeSucceeded:
		p.succeeded++
	case outcomeFailed:
		p.failed++
	case outcomeSkipped:
		p.skipped++
	}
}

// Snapshot returns a copy safe to serialize.
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		RunID:     p.runID,
		StartedAt: p.startedAt,
		Total:     p.total,
		Done:      p.done,
		Succeeded: p.succeeded,
		Failed:    p.failed,
		Skipped:   p.skipped,
	}
}
