// Command logship reads lines from stdin and ships each one as a log
// event to a CloudWatch Logs stream, draining buffered events before
// exiting on EOF or SIGINT/SIGTERM.
//
//	tail -f /var/log/app.log | logship --group my-app --region us-east-1
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/willibrandon/logship/core"
	"github.com/willibrandon/logship/formatters"
	"github.com/willibrandon/logship/selflog"
	"github.com/willibrandon/logship/sinks"
)

type options struct {
	Group         string        `long:"group" short:"g" required:"true" description:"CloudWatch log group name"`
	Stream        string        `long:"stream" short:"s" description:"Log stream name (default: hostname plus a random suffix)"`
	Region        string        `long:"region" description:"AWS region override"`
	Category      string        `long:"category" default:"logship.stdin" description:"Category recorded on each event"`
	Level         string        `long:"level" default:"info" description:"Level recorded on each event"`
	BatchSize     int           `long:"batch-size" default:"100" description:"Events per request (clamped to 1-10000)"`
	FlushInterval time.Duration `long:"flush-interval" default:"5s" description:"Periodic flush interval (0 disables the timer)"`
	Retries       int           `long:"retries" default:"3" description:"Additional attempts after a failed request"`
	RetryDelay    time.Duration `long:"retry-delay" default:"1s" description:"Delay between retry attempts"`
	JSON          bool          `long:"json" description:"Ship events as JSON objects instead of plain text"`
	NoCreate      bool          `long:"no-create" description:"Do not create the log group/stream if missing"`
	Verbose       bool          `long:"verbose" short:"v" description:"Write sink diagnostics to stderr"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		// go-flags already printed the message (or the help screen).
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Verbose {
		selflog.Enable(os.Stderr)
		defer selflog.Disable()
	}

	level, ok := core.ParseLevel(opts.Level)
	if !ok {
		fmt.Fprintf(os.Stderr, "logship: unknown level %q\n", opts.Level)
		os.Exit(1)
	}

	sinkOpts := []sinks.CloudWatchOption{
		sinks.WithCloudWatchBatchSize(opts.BatchSize),
		sinks.WithCloudWatchFlushInterval(opts.FlushInterval),
		sinks.WithCloudWatchRetry(opts.Retries, opts.RetryDelay),
		sinks.WithCloudWatchCreateMissing(!opts.NoCreate),
	}
	if opts.Region != "" {
		sinkOpts = append(sinkOpts, sinks.WithCloudWatchRegion(opts.Region))
	}
	if opts.JSON {
		sinkOpts = append(sinkOpts, sinks.WithCloudWatchFormatter(formatters.NewJSONFormatter()))
	}

	sink, err := sinks.NewCloudWatchSink(opts.Group, opts.Stream, sinkOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logship: %v\n", err)
		os.Exit(1)
	}

	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "logship: read stdin: %v\n", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	shipped := uint64(0)
loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			sink.Emit(&core.LogEvent{
				Timestamp: time.Now(),
				Level:     level,
				Category:  opts.Category,
				Message:   line,
			})
			shipped++
		case <-sigCh:
			break loop
		}
	}
	close(done)

	if err := sink.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "logship: close sink: %v\n", err)
		os.Exit(1)
	}
	if opts.Verbose {
		fmt.Fprintf(os.Stderr, "logship: accepted %d lines, delivered %d events, dropped %d\n",
			shipped, sink.SentEvents(), sink.DroppedEvents())
	}
}

// maxLineBytes caps a single stdin line; anything longer would blow the
// PutLogEvents per-request ceiling anyway.
const maxLineBytes = 1024 * 1024
