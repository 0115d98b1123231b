// Package selflog provides internal diagnostic logging for logship.
//
// A sink's ingest path never returns errors and never panics, so failures
// that occur inside a sink (formatter errors, dropped batches, retry
// exhaustion) would otherwise vanish. When selflog is enabled those
// failures are reported here instead.
//
// Enable output to stderr:
//
//	selflog.Enable(os.Stderr)
//	defer selflog.Disable()
//
// Or route diagnostics to a callback:
//
//	selflog.EnableFunc(func(msg string) { metrics.Count("logship.selflog") })
//
// Messages are formatted as:
//
//	2025-01-29T15:30:45Z [cloudwatch] dropped batch of 100 events: ...
//
// Setting the LOGSHIP_SELFLOG environment variable to "stderr", "stdout",
// or a file path enables selflog at startup.
package selflog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// output is either a writer or a callback, never both.
type output struct {
	w  io.Writer
	fn func(string)
}

var current atomic.Pointer[output]

// Enable activates self-logging to the provided writer. The writer should
// be thread-safe or wrapped with Sync.
func Enable(w io.Writer) {
	if w == nil {
		return
	}
	current.Store(&output{w: w})
}

// EnableFunc activates self-logging through a callback, which receives
// each formatted diagnostic line.
func EnableFunc(fn func(string)) {
	if fn == nil {
		return
	}
	current.Store(&output{fn: fn})
}

// Disable deactivates self-logging.
func Disable() {
	current.Store(nil)
}

// IsEnabled returns true if selflog is currently enabled. Check it before
// building expensive diagnostic messages:
//
//	if selflog.IsEnabled() {
//	    selflog.Printf("[cloudwatch] dropped %d events", n)
//	}
func IsEnabled() bool {
	return current.Load() != nil
}

// Printf logs an internal diagnostic message. The format string should
// name the component in square brackets, e.g. "[cloudwatch] put failed: %v".
func Printf(format string, args ...any) {
	o := current.Load()
	if o == nil {
		return
	}
	line := time.Now().UTC().Format(time.RFC3339) + " " + fmt.Sprintf(format, args...)
	if o.w != nil {
		fmt.Fprintln(o.w, line)
	} else {
		o.fn(line)
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Sync wraps a writer to make it safe for concurrent use. Use it when
// enabling file output or another non-synchronized writer.
func Sync(w io.Writer) io.Writer {
	return &syncWriter{w: w}
}

func init() {
	switch dest := os.Getenv("LOGSHIP_SELFLOG"); dest {
	case "":
	case "stderr":
		Enable(os.Stderr)
	case "stdout":
		Enable(os.Stdout)
	default:
		if f, err := os.OpenFile(dest, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			Enable(Sync(f))
		}
	}
}
