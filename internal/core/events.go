package core

import (
	"sync"
	"time"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// DefaultEventBufferSize bounds the reflection buffer when unconfigured.
const DefaultEventBufferSize = 256

// EventBuffer is the bounded ring of agent events Reflection consumes. When
// full, the oldest event is dropped. IDs keep increasing across drops and
// restores.
type EventBuffer struct {
	mu     sync.Mutex
	events []models.AgentEvent
	size   int
	nextID uint64
	now    func() time.Time
}

// NewEventBuffer creates a buffer holding at most size events.
func NewEventBuffer(size int) *EventBuffer {
	if size <= 0 {
		size = DefaultEventBufferSize
	}
	return &EventBuffer{size: size, nextID: 1, now: func() time.Time { return time.Now().UTC() }}
}

// Append records an event and returns it with its assigned ID.
func (b *EventBuffer) Append(kind models.AgentEventKind, concepts []string, attrs map[string]string, goalID string) models.AgentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := models.AgentEvent{
		ID:         b.nextID,
		Kind:       kind,
		Concepts:   append([]string(nil), concepts...),
		Attributes: attrs,
		GoalID:     goalID,
		At:         b.now(),
	}
	b.nextID++
	if len(b.events) == b.size {
		b.events = append(b.events[:0], b.events[1:]...)
	}
	b.events = append(b.events, e)
	return e
}

// Since returns the buffered events with an ID above hwm, oldest first.
func (b *EventBuffer) Since(hwm uint64) []models.AgentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.AgentEvent
	for _, e := range b.events {
		if e.ID > hwm {
			out = append(out, e)
		}
	}
	return out
}

// Pending reports whether any buffered event has an ID above hwm.
func (b *EventBuffer) Pending(hwm uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events) > 0 && b.events[len(b.events)-1].ID > hwm
}

// Snapshot returns the next ID and a copy of the buffered events.
func (b *EventBuffer) Snapshot() (uint64, []models.AgentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextID, append([]models.AgentEvent(nil), b.events...)
}

// Restore replaces the buffer contents. Only the newest events that fit are
// kept.
func (b *EventBuffer) Restore(nextID uint64, events []models.AgentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(events) > b.size {
		events = events[len(events)-b.size:]
	}
	b.events = append(b.events[:0], events...)
	b.nextID = nextID
	for _, e := range b.events {
		if e.ID >= b.nextID {
			b.nextID = e.ID + 1
		}
	}
	if b.nextID == 0 {
		b.nextID = 1
	}
}
