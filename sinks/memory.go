package sinks

import (
	"sync"

	"github.com/willibrandon/logship/core"
	"github.com/willibrandon/logship/selflog"
)

// MemorySink stores log events in memory. It is intended for tests and
// local development, where shipping to a real destination is unwanted.
// When a formatter is configured, the sink also captures each event's
// rendered wire text, mirroring what a network sink would ship.
type MemorySink struct {
	mu        sync.RWMutex
	events    []core.LogEvent
	rendered  []string
	formatter core.MessageFormatter
}

// MemoryOption configures a memory sink.
type MemoryOption func(*MemorySink)

// WithMemoryFormatter renders each emitted event through formatter and
// records the result, retrievable with Rendered. Events whose rendering
// fails are dropped with a diagnostic, matching network sink behavior.
func WithMemoryFormatter(formatter core.MessageFormatter) MemoryOption {
	return func(m *MemorySink) {
		m.formatter = formatter
	}
}

// NewMemorySink creates a new memory sink.
func NewMemorySink(opts ...MemoryOption) *MemorySink {
	m := &MemorySink{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Emit stores a copy of the event.
func (m *MemorySink) Emit(event *core.LogEvent) {
	if event == nil {
		return
	}

	var text string
	if m.formatter != nil {
		var err error
		text, err = m.formatter.Format(event)
		if err != nil {
			if selflog.IsEnabled() {
				selflog.Printf("[memory] formatter failed, event dropped: %v", err)
			}
			return
		}
	}

	stored := *event
	if event.Properties != nil {
		stored.Properties = make(map[string]any, len(event.Properties))
		for k, v := range event.Properties {
			stored.Properties[k] = v
		}
	}

	m.mu.Lock()
	m.events = append(m.events, stored)
	if m.formatter != nil {
		m.rendered = append(m.rendered, text)
	}
	m.mu.Unlock()
}

// Close does nothing for a memory sink.
func (m *MemorySink) Close() error {
	return nil
}

// Events returns a copy of all stored events in acceptance order.
func (m *MemorySink) Events() []core.LogEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.LogEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Rendered returns the wire text of each stored event, in acceptance
// order. Empty unless the sink was built with WithMemoryFormatter.
func (m *MemorySink) Rendered() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.rendered))
	copy(out, m.rendered)
	return out
}

// Count returns the number of stored events.
func (m *MemorySink) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Clear removes all stored events and rendered text.
func (m *MemorySink) Clear() {
	m.mu.Lock()
	m.events = m.events[:0]
	m.rendered = m.rendered[:0]
	m.mu.Unlock()
}

// HasEvent returns true if any stored event matches the predicate.
func (m *MemorySink) HasEvent(predicate func(*core.LogEvent) bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.events {
		if predicate(&m.events[i]) {
			return true
		}
	}
	return false
}
