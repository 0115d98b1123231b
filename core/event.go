package core

import "time"

// LogEvent is a single structured log record handed to a sink.
type LogEvent struct {
	// Timestamp is when the event occurred. A zero timestamp is replaced
	// with the wall clock at ingestion.
	Timestamp time.Time

	// Level is the severity of the event.
	Level LogEventLevel

	// Category is the dotted path of the logger that produced the event,
	// e.g. "service.auth.session".
	Category string

	// Message is the message text, optionally containing {name}
	// placeholders resolved against Properties.
	Message string

	// Properties holds the values referenced by placeholders, plus any
	// extra structured context attached to the event.
	Properties map[string]any
}

// AddProperty adds or overwrites a property on the event.
func (e *LogEvent) AddProperty(name string, value any) {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	e.Properties[name] = value
}
