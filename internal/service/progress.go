package service

import (
	"sync"
	"time"

	"pdf-toolkit/internal/domain"
)

// Span is the percent range reserved for a page loop.
type Span struct {
	Start float64
	End   float64
}

// At returns the percent after unit i (1-indexed) of n has started.
func (s Span) At(i, n int) float64 {
	if n <= 0 {
		return s.End
	}
	return s.Start + float64(i)/float64(n)*(s.End-s.Start)
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// ProgressTracker records the high-water progress of one job and fans every
// update out to the hub and an optional extra reporter.
type ProgressTracker struct {
	mu      sync.Mutex
	jobID   string
	tool    domain.Tool
	percent float64
	message string
	hub     *ProgressHub
	extra   domain.ProgressReporter
	onEvent func(domain.ProgressEvent)
}

// NewProgressTracker builds a tracker; hub and extra may be nil.
func NewProgressTracker(jobID string, tool domain.Tool, hub *ProgressHub, extra domain.ProgressReporter) *ProgressTracker {
	return &ProgressTracker{
		jobID: jobID,
		tool:  tool,
		hub:   hub,
		extra: extra,
	}
}

// Update implements domain.ProgressReporter. A lower percent than before does
// not move the recorded high-water mark; the extra reporter still sees it.
func (p *ProgressTracker) Update(percent float64, message string) {
	percent = clampPercent(percent)

	p.mu.Lock()
	if percent > p.percent {
		p.percent = percent
	}
	if message != "" {
		p.message = message
	}
	evt := domain.ProgressEvent{
		JobID:     p.jobID,
		Tool:      p.tool,
		Status:    domain.JobStatusRunning,
		Percent:   p.percent,
		Message:   p.message,
		Timestamp: time.Now().UTC(),
	}
	onEvent := p.onEvent
	p.mu.Unlock()

	if onEvent != nil {
		onEvent(evt)
	}
	if p.hub != nil {
		p.hub.Publish(evt)
	}
	if p.extra != nil {
		p.extra.Update(percent, message)
	}
}

// Snapshot returns the last percent and message.
func (p *ProgressTracker) Snapshot() (float64, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent, p.message
}
