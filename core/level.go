package core

import (
	"fmt"
	"strings"
)

// LogEventLevel specifies the severity of a log event.
type LogEventLevel int

const (
	// TraceLevel is the most detailed logging level.
	TraceLevel LogEventLevel = iota

	// DebugLevel is for debugging information.
	DebugLevel

	// InfoLevel is for informational messages.
	InfoLevel

	// WarnLevel is for warnings.
	WarnLevel

	// ErrorLevel is for errors.
	ErrorLevel

	// FatalLevel is for fatal errors.
	FatalLevel
)

// String returns the conventional name of the level, e.g. "Error".
func (l LogEventLevel) String() string {
	switch l {
	case TraceLevel:
		return "Trace"
	case DebugLevel:
		return "Debug"
	case InfoLevel:
		return "Info"
	case WarnLevel:
		return "Warn"
	case ErrorLevel:
		return "Error"
	case FatalLevel:
		return "Fatal"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel converts a level name to a LogEventLevel. Matching is
// case-insensitive; the second return value reports whether the name
// was recognized.
func ParseLevel(name string) (LogEventLevel, bool) {
	switch strings.ToLower(name) {
	case "trace", "verbose":
		return TraceLevel, true
	case "debug":
		return DebugLevel, true
	case "info", "information":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	case "fatal":
		return FatalLevel, true
	default:
		return InfoLevel, false
	}
}
