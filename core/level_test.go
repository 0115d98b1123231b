package core

import "testing"

func TestLogEventLevelString(t *testing.T) {
	cases := []struct {
		level LogEventLevel
		want  string
	}{
		{TraceLevel, "Trace"},
		{DebugLevel, "Debug"},
		{InfoLevel, "Info"},
		{WarnLevel, "Warn"},
		{ErrorLevel, "Error"},
		{FatalLevel, "Fatal"},
		{LogEventLevel(42), "Level(42)"},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", int(tc.level), got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want LogEventLevel
		ok   bool
	}{
		{"info", InfoLevel, true},
		{"INFO", InfoLevel, true},
		{"Warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"verbose", TraceLevel, true},
		{"nope", InfoLevel, false},
	}
	for _, tc := range cases {
		got, ok := ParseLevel(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAddProperty(t *testing.T) {
	var e LogEvent
	e.AddProperty("user", "john")
	e.AddProperty("user", "jane")

	if e.Properties["user"] != "jane" {
		t.Errorf("AddProperty should overwrite, got %v", e.Properties["user"])
	}
}
