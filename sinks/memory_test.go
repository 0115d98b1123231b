package sinks

import (
	"testing"
	"time"

	"github.com/willibrandon/logship/core"
	"github.com/willibrandon/logship/formatters"
)

func TestMemorySink_StoresCopies(t *testing.T) {
	sink := NewMemorySink()
	defer sink.Close()

	event := &core.LogEvent{
		Timestamp:  time.Now(),
		Level:      core.WarnLevel,
		Category:   "cache",
		Message:    "evicted {count} entries",
		Properties: map[string]any{"count": 7},
	}
	sink.Emit(event)

	// Mutating the original after Emit must not change what was stored.
	event.Properties["count"] = 99

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Properties["count"] != 7 {
		t.Errorf("stored property mutated: %v", events[0].Properties["count"])
	}
}

func TestMemorySink_HasEventAndClear(t *testing.T) {
	sink := NewMemorySink()
	defer sink.Close()

	sink.Emit(&core.LogEvent{Level: core.InfoLevel, Message: "a"})
	sink.Emit(&core.LogEvent{Level: core.ErrorLevel, Message: "b"})

	if sink.Count() != 2 {
		t.Fatalf("Count = %d, want 2", sink.Count())
	}
	if !sink.HasEvent(func(e *core.LogEvent) bool { return e.Level == core.ErrorLevel }) {
		t.Error("expected an error-level event")
	}

	sink.Clear()
	if sink.Count() != 0 {
		t.Errorf("Count after Clear = %d", sink.Count())
	}
}

func TestMemorySink_CapturesRenderedText(t *testing.T) {
	sink := NewMemorySink(WithMemoryFormatter(formatters.NewTextFormatter()))
	defer sink.Close()

	sink.Emit(&core.LogEvent{
		Message:    "User {user} failed to login",
		Properties: map[string]any{"user": map[string]any{"id": 123, "name": "John"}},
	})
	sink.Emit(&core.LogEvent{Message: "plain line"})

	rendered := sink.Rendered()
	if len(rendered) != 2 {
		t.Fatalf("expected 2 rendered lines, got %d", len(rendered))
	}
	if rendered[0] != `User {"id":123,"name":"John"} failed to login` {
		t.Errorf("rendered[0] = %q", rendered[0])
	}
	if rendered[1] != "plain line" {
		t.Errorf("rendered[1] = %q", rendered[1])
	}

	sink.Clear()
	if len(sink.Rendered()) != 0 {
		t.Error("Clear should discard rendered text")
	}
}

func TestMemorySink_FormatterFailureDropsEvent(t *testing.T) {
	sink := NewMemorySink(WithMemoryFormatter(failingFormatter{}))
	defer sink.Close()

	sink.Emit(&core.LogEvent{Message: "doomed"})

	if sink.Count() != 0 {
		t.Errorf("unformattable event should be dropped, Count = %d", sink.Count())
	}
}

func TestMemorySink_NoFormatterNoRenderedText(t *testing.T) {
	sink := NewMemorySink()
	defer sink.Close()

	sink.Emit(&core.LogEvent{Message: "a"})

	if got := sink.Rendered(); len(got) != 0 {
		t.Errorf("Rendered should be empty without a formatter, got %v", got)
	}
}

func TestMemorySink_ImplementsLogEventSink(t *testing.T) {
	var _ core.LogEventSink = NewMemorySink()
}
