package sinks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/google/uuid"

	"github.com/willibrandon/logship/core"
	"github.com/willibrandon/logship/formatters"
	"github.com/willibrandon/logship/selflog"
)

// ClientAPI is the subset of the CloudWatch Logs client used by the sink.
// The aws-sdk-go-v2 client satisfies it; tests substitute fakes.
type ClientAPI interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// CloudWatchSink ships log events to a CloudWatch Logs stream.
//
// Events are rendered by the configured formatter, buffered in memory, and
// sent in batches that respect the PutLogEvents limits (10,000 events,
// 1,048,576 accounted bytes per request). A single background worker owns
// all network I/O, so batches are delivered in acceptance order and at most
// one request is in flight per sink. Emit never blocks and never panics;
// delivery failures are retried with a fixed delay and reported to selflog
// once the retry budget is spent.
type CloudWatchSink struct {
	group  string
	stream string
	client ClientAPI
	region string

	formatter     core.MessageFormatter
	batchSize     int
	flushInterval time.Duration
	retryCount    int
	retryDelay    time.Duration
	createMissing bool

	buf    eventBuffer
	bufMu  sync.Mutex
	closed bool // guarded by bufMu

	flushCh   chan struct{}
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	// ensured tracks destination bootstrap; touched only by the worker.
	ensured bool

	droppedEvents atomic.Uint64
	sentEvents    atomic.Uint64
}

// CloudWatchOption configures a CloudWatch sink.
type CloudWatchOption func(*CloudWatchSink)

// WithCloudWatchClient sets the CloudWatch Logs client. When omitted, a
// client is built from the default AWS config chain.
func WithCloudWatchClient(client ClientAPI) CloudWatchOption {
	return func(s *CloudWatchSink) {
		s.client = client
	}
}

// WithCloudWatchRegion overrides the AWS region used when the sink builds
// its own client. Ignored when a client is supplied.
func WithCloudWatchRegion(region string) CloudWatchOption {
	return func(s *CloudWatchSink) {
		s.region = region
	}
}

// WithCloudWatchBatchSize sets the number of events per request. Values are
// clamped to [1, 10000], the PutLogEvents ceiling.
func WithCloudWatchBatchSize(size int) CloudWatchOption {
	return func(s *CloudWatchSink) {
		s.batchSize = size
	}
}

// WithCloudWatchFlushInterval sets the periodic flush interval. Zero
// disables the timer; events then ship only on threshold or Close.
func WithCloudWatchFlushInterval(interval time.Duration) CloudWatchOption {
	return func(s *CloudWatchSink) {
		s.flushInterval = interval
	}
}

// WithCloudWatchRetry configures retry behavior: count additional attempts
// after a failed request, with a fixed delay between attempts. A count of
// zero means exactly one attempt per batch.
func WithCloudWatchRetry(count int, delay time.Duration) CloudWatchOption {
	return func(s *CloudWatchSink) {
		s.retryCount = count
		s.retryDelay = delay
	}
}

// WithCloudWatchFormatter sets the formatter that renders each event into
// its wire text. The default is formatters.NewTextFormatter().
func WithCloudWatchFormatter(formatter core.MessageFormatter) CloudWatchOption {
	return func(s *CloudWatchSink) {
		s.formatter = formatter
	}
}

// WithCloudWatchCreateMissing controls whether the sink creates the log
// group and stream before the first request. Enabled by default.
func WithCloudWatchCreateMissing(create bool) CloudWatchOption {
	return func(s *CloudWatchSink) {
		s.createMissing = create
	}
}

// NewCloudWatchSink creates a sink writing to the given log group and
// stream. An empty stream name defaults to "<hostname>-<uuid>".
func NewCloudWatchSink(group, stream string, opts ...CloudWatchOption) (*CloudWatchSink, error) {
	if group == "" {
		return nil, errors.New("cloudwatch sink: log group name is required")
	}

	s := &CloudWatchSink{
		group:         group,
		stream:        stream,
		formatter:     formatters.NewTextFormatter(),
		batchSize:     100,
		flushInterval: 5 * time.Second,
		retryCount:    3,
		retryDelay:    time.Second,
		createMissing: true,
		flushCh:       make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.batchSize < 1 {
		s.batchSize = 1
	} else if s.batchSize > maxBatchEvents {
		s.batchSize = maxBatchEvents
	}
	if s.retryCount < 0 {
		s.retryCount = 0
	}
	if s.stream == "" {
		s.stream = defaultStreamName()
	}

	if s.client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if s.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(s.region))
		}
		cfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("cloudwatch sink: load aws config: %w", err)
		}
		// The sink owns the retry policy; don't stack the SDK's on top.
		s.client = cloudwatchlogs.NewFromConfig(cfg, func(o *cloudwatchlogs.Options) {
			o.Retryer = aws.NopRetryer{}
		})
	}

	s.wg.Add(1)
	go s.worker()

	return s, nil
}

func defaultStreamName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "logship"
	}
	return host + "-" + uuid.NewString()
}

// Emit renders the event and adds it to the batch. It never blocks: when a
// flush threshold is crossed the background worker is signaled and the call
// returns immediately. Emitting to a closed sink drops the event.
func (s *CloudWatchSink) Emit(event *core.LogEvent) {
	if event == nil {
		return
	}

	s.bufMu.Lock()
	if s.closed {
		s.bufMu.Unlock()
		if selflog.IsEnabled() {
			selflog.Printf("[cloudwatch] emit after close, event dropped (group=%s)", s.group)
		}
		return
	}

	// Formatting happens under the lock so the closed check above stays
	// valid through the append. Formatters are pure and fast.
	message, err := s.formatter.Format(event)
	if err != nil {
		s.bufMu.Unlock()
		if selflog.IsEnabled() {
			selflog.Printf("[cloudwatch] formatter failed, event dropped: %v", err)
		}
		return
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	shouldFlush := s.buf.appendEvent(pendingEvent{
		timestamp: timestamp.UnixMilli(),
		message:   message,
		size:      len(message) + eventOverheadBytes,
	}, s.batchSize)
	s.bufMu.Unlock()

	if shouldFlush {
		s.signalFlush()
	}
}

// signalFlush wakes the worker without blocking. A pending signal already
// covers this request; concurrent triggers coalesce into one flush pass.
func (s *CloudWatchSink) signalFlush() {
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

// Close stops the timer, drains all buffered events (waiting out any
// in-flight retries), and marks the sink closed. Safe to call more than
// once. Every event accepted before Close is either delivered or reported
// as dropped by the time Close returns.
func (s *CloudWatchSink) Close() error {
	s.closeOnce.Do(func() {
		s.bufMu.Lock()
		s.closed = true
		s.bufMu.Unlock()

		close(s.stopCh)
		s.wg.Wait()
	})
	return nil
}

// SentEvents returns the number of events delivered so far.
func (s *CloudWatchSink) SentEvents() uint64 {
	return s.sentEvents.Load()
}

// DroppedEvents returns the number of events discarded because their batch
// exhausted its retry budget or failed terminally. Formatter failures are
// not counted here.
func (s *CloudWatchSink) DroppedEvents() uint64 {
	return s.droppedEvents.Load()
}

func (s *CloudWatchSink) worker() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.flushInterval > 0 {
		ticker := time.NewTicker(s.flushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.stopCh:
			s.flush()
			return
		case <-tick:
			s.flush()
		case <-s.flushCh:
			s.flush()
		}
	}
}

// flush drains and dispatches batches until the buffer is empty. A batch
// that fails terminally is dropped and draining continues, so one poison
// batch never wedges the ones behind it.
func (s *CloudWatchSink) flush() {
	for {
		s.bufMu.Lock()
		batch := s.buf.drainUpTo(s.batchSize, maxBatchBytes)
		s.bufMu.Unlock()

		if len(batch) == 0 {
			return
		}
		s.sendBatch(batch)
	}
}

// sendBatch attempts delivery with up to retryCount additional attempts,
// sleeping retryDelay between them. Exhaustion or a terminal error drops
// the batch with a diagnostic; nothing propagates to the producer.
func (s *CloudWatchSink) sendBatch(batch []pendingEvent) {
	events := make([]types.InputLogEvent, len(batch))
	for i, ev := range batch {
		events[i] = types.InputLogEvent{
			Message:   aws.String(ev.message),
			Timestamp: aws.Int64(ev.timestamp),
		}
	}
	input := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(s.stream),
		LogEvents:     events,
	}

	for attempt := 0; ; attempt++ {
		err := s.putBatch(context.Background(), input)
		if err == nil {
			s.sentEvents.Add(uint64(len(batch)))
			return
		}

		if isTerminal(err) {
			s.droppedEvents.Add(uint64(len(batch)))
			if selflog.IsEnabled() {
				selflog.Printf("[cloudwatch] dropped batch of %d events (group=%s stream=%s): %v",
					len(batch), s.group, s.stream, err)
			}
			return
		}
		if attempt >= s.retryCount {
			s.droppedEvents.Add(uint64(len(batch)))
			if selflog.IsEnabled() {
				selflog.Printf("[cloudwatch] dropped batch of %d events after %d attempts (group=%s stream=%s): %v",
					len(batch), attempt+1, s.group, s.stream, err)
			}
			return
		}
		time.Sleep(s.retryDelay)
	}
}

func (s *CloudWatchSink) putBatch(ctx context.Context, input *cloudwatchlogs.PutLogEventsInput) error {
	if !s.ensured {
		if err := s.ensureDestination(ctx); err != nil {
			return err
		}
		s.ensured = true
	}
	_, err := s.client.PutLogEvents(ctx, input)
	return err
}

// ensureDestination creates the log group and stream ahead of the first
// request. Racing with another writer is fine: already-exists answers are
// treated as success.
func (s *CloudWatchSink) ensureDestination(ctx context.Context) error {
	if !s.createMissing {
		return nil
	}

	_, err := s.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(s.group),
	})
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("create log group: %w", err)
	}

	_, err = s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(s.stream),
	})
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("create log stream: %w", err)
	}
	return nil
}

func isAlreadyExists(err error) bool {
	var exists *types.ResourceAlreadyExistsException
	return errors.As(err, &exists)
}

// isTerminal reports whether retrying the request cannot succeed. Anything
// unrecognized (throttling, service unavailable, transport failures) is
// considered transient and stays inside the retry budget.
func isTerminal(err error) bool {
	var invalidParam *types.InvalidParameterException
	var notFound *types.ResourceNotFoundException
	var badClient *types.UnrecognizedClientException
	var duplicate *types.DataAlreadyAcceptedException
	return errors.As(err, &invalidParam) ||
		errors.As(err, &notFound) ||
		errors.As(err, &badClient) ||
		errors.As(err, &duplicate)
}
