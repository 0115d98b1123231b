package sinks

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/willibrandon/logship/core"
	"github.com/willibrandon/logship/selflog"
)

// selflogCapture collects diagnostic lines emitted from any goroutine.
type selflogCapture struct {
	mu    sync.Mutex
	lines []string
}

func (c *selflogCapture) capture(msg string) {
	c.mu.Lock()
	c.lines = append(c.lines, msg)
	c.mu.Unlock()
}

func (c *selflogCapture) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *selflogCapture) contains(substr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range c.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

type failingFormatter struct{}

func (failingFormatter) Format(*core.LogEvent) (string, error) {
	return "", errors.New("render exploded")
}

func TestCloudWatchSink_FormatterFailureReported(t *testing.T) {
	capture := &selflogCapture{}
	selflog.EnableFunc(capture.capture)
	defer selflog.Disable()

	client := &fakeCloudWatch{}
	sink := newTestSink(t, client, WithCloudWatchFormatter(failingFormatter{}))

	sink.Emit(infoEvent("doomed"))

	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := len(client.puts()); got != 0 {
		t.Errorf("unformattable event must not dispatch, got %d batches", got)
	}
	if !capture.contains("[cloudwatch] formatter failed") {
		t.Error("formatter failure should be reported to selflog")
	}
}

func TestCloudWatchSink_DroppedBatchReported(t *testing.T) {
	capture := &selflogCapture{}
	selflog.EnableFunc(capture.capture)
	defer selflog.Disable()

	client := &fakeCloudWatch{putErr: errors.New("dial tcp: timeout")}
	sink := newTestSink(t, client, WithCloudWatchRetry(1, time.Millisecond))

	sink.Emit(infoEvent("lost"))

	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !capture.contains("dropped batch of 1 events after 2 attempts") {
		t.Errorf("retry exhaustion should be reported, got %v", capture.all())
	}
}

type countingFailFormatter struct {
	calls atomic.Int32
}

func (f *countingFailFormatter) Format(*core.LogEvent) (string, error) {
	f.calls.Add(1)
	return "", errors.New("render exploded")
}

func TestCloudWatchSink_ClosedSinkSkipsFormatter(t *testing.T) {
	capture := &selflogCapture{}
	selflog.EnableFunc(capture.capture)
	defer selflog.Disable()

	formatter := &countingFailFormatter{}
	sink := newTestSink(t, &fakeCloudWatch{}, WithCloudWatchFormatter(formatter))
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sink.Emit(infoEvent("late"))

	if got := formatter.calls.Load(); got != 0 {
		t.Errorf("closed sink must not run the formatter, ran %d times", got)
	}
	if capture.contains("formatter failed") {
		t.Error("emit after close should not be reported as a formatter failure")
	}
	if !capture.contains("emit after close") {
		t.Error("emit after close should be reported to selflog")
	}
}

func TestCloudWatchSink_EmitAfterCloseReported(t *testing.T) {
	capture := &selflogCapture{}
	selflog.EnableFunc(capture.capture)
	defer selflog.Disable()

	sink := newTestSink(t, &fakeCloudWatch{})
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sink.Emit(infoEvent("late"))

	if !capture.contains("emit after close") {
		t.Error("emit after close should be reported to selflog")
	}
}
