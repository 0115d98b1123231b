// Package formatters provides the built-in message formatters used by
// logship sinks. A formatter turns a core.LogEvent into the wire text
// shipped to the destination; sinks accept any core.MessageFormatter,
// so custom renderings can be substituted at construction time.
package formatters

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/willibrandon/logship/core"
)

// TextFormatter renders the event's message with {name} placeholders
// replaced by the matching property. Scalar values print plainly;
// structured values (maps, slices, structs) render as compact JSON:
//
//	Message:    "User {user} failed to login"
//	Properties: {"user": {"id": 123, "name": "John"}}
//
// renders as
//
//	User {"id":123,"name":"John"} failed to login
//
// This is the default formatter for every sink.
type TextFormatter struct{}

// NewTextFormatter creates the default plain-text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format renders the interpolated message text.
func (f *TextFormatter) Format(event *core.LogEvent) (string, error) {
	return renderMessage(event.Message, event.Properties)
}

// renderMessage substitutes {name} placeholders from props. Placeholders
// with no matching property are left verbatim, so plain text containing
// braces passes through unchanged.
func renderMessage(message string, props map[string]any) (string, error) {
	if !strings.Contains(message, "{") {
		return message, nil
	}

	var b strings.Builder
	b.Grow(len(message))
	for i := 0; i < len(message); {
		if message[i] != '{' {
			b.WriteByte(message[i])
			i++
			continue
		}
		end := strings.IndexByte(message[i:], '}')
		if end < 0 {
			b.WriteString(message[i:])
			break
		}
		name := message[i+1 : i+end]
		if value, ok := props[name]; ok {
			rendered, err := renderValue(value)
			if err != nil {
				return "", err
			}
			b.WriteString(rendered)
		} else {
			b.WriteString(message[i : i+end+1])
		}
		i += end + 1
	}
	return b.String(), nil
}

func renderValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	case error:
		return v.Error(), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	case bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(v), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("render property: %w", err)
	}
	return string(data), nil
}
