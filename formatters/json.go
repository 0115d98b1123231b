package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/willibrandon/logship/core"
)

// JSONFormatter renders the whole event as a single JSON object with an
// uppercased level name and the dotted category string. Use it when the
// destination is queried with JSON field filters.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON object formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonEvent struct {
	Timestamp  string         `json:"timestamp"`
	Level      string         `json:"level"`
	Category   string         `json:"category,omitempty"`
	Message    string         `json:"message"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Format renders the event as one compact JSON object.
func (f *JSONFormatter) Format(event *core.LogEvent) (string, error) {
	message, err := renderMessage(event.Message, event.Properties)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(jsonEvent{
		Timestamp:  event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Level:      strings.ToUpper(event.Level.String()),
		Category:   event.Category,
		Message:    message,
		Properties: event.Properties,
	})
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(data), nil
}
