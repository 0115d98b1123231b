package core

// LogEventSink outputs log events to a destination.
//
// Emit must not block the caller and must not panic; sinks report
// internal failures through their diagnostic channel instead. Close
// releases the sink's resources and drains any buffered events first.
type LogEventSink interface {
	// Emit accepts one log event for delivery.
	Emit(event *LogEvent)

	// Close drains pending events and releases the sink's resources.
	Close() error
}
