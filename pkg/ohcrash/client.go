// client.go provides the Client facade that composes hooks, the report
// builder, the transport and the exit guard.

package ohcrash

import (
	"context"
	"fmt"
	"sync"
)

// Reporter is the part of Client used by Recover and the adapters.
type Reporter interface {
	Report(ctx context.Context, err error, attachments ...Attachment) <-chan Outcome
}

// Client captures errors from a host and reports them.
// It is safe for concurrent use.
type Client struct {
	endpoint  string
	transport Transport
	builder   *builder
	logger    Logger
	process   EventSource
	window    ErrorSlot
	family    Family

	exceptions    bool
	rejections    bool
	windowOnError bool
	exitOnFatal   bool

	// Bound handlers, created once so removal finds exactly these values.
	onException *exceptionHandler
	onRejection *rejectionHandler
	onWindow    *windowHandler

	mu    sync.Mutex
	hooks hookState
	exit  exitState

	inflight inflightReports
}

// inflightReports counts undelivered reports. Unlike a WaitGroup, it may be
// waited on while reports are still being added.
type inflightReports struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

var closedIdle = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (f *inflightReports) add() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		f.idle = make(chan struct{})
	}
	f.n++
}

func (f *inflightReports) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n--
	if f.n == 0 {
		close(f.idle)
	}
}

// wait returns a channel closed once no report is in flight.
func (f *inflightReports) wait() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		return closedIdle
	}
	return f.idle
}

// New creates a client reporting to endpoint. The client is enabled unless
// WithoutAutoEnable is given.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, &ConfigError{Field: "endpoint", Err: ErrMissingEndpoint}
	}

	cfg := defaultClientConfig()
	cfg.endpoint = endpoint
	for _, opt := range opts {
		opt(cfg)
	}
	// WithEndpoint may not clear the endpoint given to New.
	if cfg.endpoint == "" {
		cfg.endpoint = endpoint
	}

	c := newClient(cfg)
	if cfg.autoEnable {
		c.Enable()
	}
	return c, nil
}

// FromAPIKey creates an enabled client keyed by apiKey and reporting to
// DefaultEndpoint, or to the endpoint given with WithEndpoint.
func FromAPIKey(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, &ConfigError{Field: "apiKey", Err: ErrMissingAPIKey}
	}

	cfg := defaultClientConfig()
	cfg.endpoint = DefaultEndpoint
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.apiKey = apiKey

	c := newClient(cfg)
	c.Enable()
	return c, nil
}

func newClient(cfg *clientConfig) *Client {
	if cfg.process == nil {
		cfg.process = DefaultProcess
	}
	if cfg.logger == nil {
		cfg.logger = NewConsoleLogger(nil, nil)
	}
	if cfg.transport == nil {
		cfg.transport = NewHTTPTransport(cfg.endpoint, cfg.apiKey, cfg.httpOptions...)
	}

	c := &Client{
		endpoint:  cfg.endpoint,
		transport: cfg.transport,
		builder: &builder{
			runtimeIdentity: cfg.runtimeIdentity,
			globalProps:     cfg.globalProps,
			scrubber:        cfg.scrubber,
			startTime:       processStart,
		},
		logger:        cfg.logger,
		process:       cfg.process,
		window:        cfg.window,
		family:        DetectFamily(cfg.window),
		exceptions:    cfg.exceptions,
		rejections:    cfg.rejections,
		windowOnError: cfg.windowOnError,
		exitOnFatal:   cfg.exit,
	}
	c.onException = &exceptionHandler{c: c}
	c.onRejection = &rejectionHandler{c: c}
	c.onWindow = &windowHandler{c: c}
	return c
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Family returns the runtime family the client hooks.
func (c *Client) Family() Family {
	return c.family
}

// Report builds a report for err and delivers it on a new goroutine. The
// returned channel receives exactly one Outcome and is then closed.
// Delivery is not cancelled by ctx. A failure is logged and returned in the
// Outcome; it is never reported again.
func (c *Client) Report(ctx context.Context, err error, attachments ...Attachment) <-chan Outcome {
	return c.dispatch(ctx, err, ChannelManual, attachments...)
}

func (c *Client) dispatch(ctx context.Context, err error, channel Channel, attachments ...Attachment) <-chan Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	report := c.builder.build(ctx, err, channel, attachments...)
	sendCtx := context.WithoutCancel(ctx)

	done := make(chan Outcome, 1)
	c.inflight.add()
	go func() {
		defer c.inflight.done()
		defer close(done)
		done <- Outcome{ReportID: report.ID, Err: c.deliver(sendCtx, report)}
	}()
	return done
}

// deliver sends report and contains every failure, including a panicking
// transport.
func (c *Client) deliver(ctx context.Context, report Report) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Errorf("transport panicked: %s", formatRecovered(r))
		}
		if err != nil {
			c.logger.Error(fmt.Sprintf("ohcrash: failed to report error: %v", err))
		}
	}()
	return c.transport.Send(ctx, report)
}

// Send hands report to the transport once. It does not log or retry.
func (c *Client) Send(ctx context.Context, report Report) error {
	if report.Props == nil {
		report.Props = Props{}
	}
	return c.transport.Send(ctx, report)
}

// Flush waits for in-flight reports, then flushes the transport.
func (c *Client) Flush(ctx context.Context) error {
	select {
	case <-c.inflight.wait():
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.transport.Flush(ctx)
}

// Close disables the client, waits for in-flight reports and closes the
// transport.
func (c *Client) Close() error {
	c.Disable()
	<-c.inflight.wait()
	return c.transport.Close()
}

// logCaptured writes the error headline followed by its stack, if any.
func (c *Client) logCaptured(err error) {
	headline := errorMessage(err)
	if name := errorName(err); name != "" {
		headline = name + ": " + headline
	}
	if stack := errorStack(err); stack != "" {
		c.logger.Log(headline + "\n" + stack)
		return
	}
	c.logger.Log(headline)
}
