package sinks

// PutLogEvents request limits, documented at
// https://docs.aws.amazon.com/AmazonCloudWatchLogs/latest/APIReference/API_PutLogEvents.html
const (
	maxBatchBytes      = 1048576
	maxBatchEvents     = 10000
	eventOverheadBytes = 26
)

// pendingEvent is one rendered event waiting in a sink's buffer.
type pendingEvent struct {
	timestamp int64 // milliseconds since the epoch
	message   string
	size      int // len(message) + eventOverheadBytes, the API's accounting unit
}

// eventBuffer is an ordered buffer of pending events with accounted-size
// tracking. It is not safe for concurrent use; the owning sink guards it.
type eventBuffer struct {
	events []pendingEvent
	size   int
}

// appendEvent adds ev to the tail and reports whether the buffer should be
// flushed now: either the event count reached batchSize, or the accounted
// size passed the request ceiling. The size check fires as soon as the
// ceiling is crossed so the drain below can split the buffer before any
// request exceeds the limit.
func (b *eventBuffer) appendEvent(ev pendingEvent, batchSize int) bool {
	b.events = append(b.events, ev)
	b.size += ev.size
	return len(b.events) >= batchSize || b.size > maxBatchBytes
}

// drainUpTo removes and returns the longest prefix holding at most
// maxEvents events and maxBytes accounted bytes, leaving the remainder
// buffered. A single event larger than maxBytes is returned alone rather
// than dropped. Returns nil when the buffer is empty.
func (b *eventBuffer) drainUpTo(maxEvents, maxBytes int) []pendingEvent {
	if len(b.events) == 0 {
		return nil
	}

	n, bytes := 0, 0
	for n < len(b.events) && n < maxEvents {
		next := bytes + b.events[n].size
		if next > maxBytes && n > 0 {
			break
		}
		bytes = next
		n++
		if bytes > maxBytes {
			// Oversized single event rides alone.
			break
		}
	}

	batch := make([]pendingEvent, n)
	copy(batch, b.events[:n])

	remaining := copy(b.events, b.events[n:])
	b.events = b.events[:remaining]
	b.size -= bytes
	return batch
}

func (b *eventBuffer) len() int {
	return len(b.events)
}
