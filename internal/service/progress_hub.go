package service

import (
	"sync"
	"time"

	"pdf-toolkit/internal/domain"
)

// ProgressHub stores recent progress events and pushes them to subscribers.
type ProgressHub struct {
	mu          sync.RWMutex
	nextSeq     int64
	maxEvents   int
	events      []domain.ProgressEvent
	subscribers map[int]chan domain.ProgressEvent
	nextSubID   int
}

// NewProgressHub creates a bounded in-memory event buffer.
func NewProgressHub(maxEvents int) *ProgressHub {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &ProgressHub{
		maxEvents:   maxEvents,
		events:      make([]domain.ProgressEvent, 0, maxEvents),
		subscribers: make(map[int]chan domain.ProgressEvent),
	}
}

// Publish appends one event, assigns its sequence number and notifies
// subscribers. Slow subscribers miss events rather than block the job.
func (h *ProgressHub) Publish(event domain.ProgressEvent) domain.ProgressEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	event.Seq = h.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.events = append(h.events, event)
	if len(h.events) > h.maxEvents {
		trim := len(h.events) - h.maxEvents
		h.events = append([]domain.ProgressEvent(nil), h.events[trim:]...)
	}

	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (h *ProgressHub) Since(seq int64) []domain.ProgressEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.events) == 0 {
		return nil
	}

	out := make([]domain.ProgressEvent, 0, len(h.events))
	for _, event := range h.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Subscribe registers a buffered channel for new events. The returned
// function unsubscribes and closes the channel.
func (h *ProgressHub) Subscribe(buffer int) (<-chan domain.ProgressEvent, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan domain.ProgressEvent, buffer)

	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}
