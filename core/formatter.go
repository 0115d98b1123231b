package core

// MessageFormatter renders a log event into the wire text a sink ships
// to its destination. A formatter error causes the event to be dropped
// with a diagnostic; it never propagates to the producer.
type MessageFormatter interface {
	Format(event *LogEvent) (string, error)
}
