package ohcrash

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EmptyEndpoint(t *testing.T) {
	c, err := New("")
	if c != nil {
		t.Error("New(\"\") returned a client")
	}
	if !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("err = %v, want ErrMissingEndpoint", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %T, want *ConfigError", err)
	}
	if cfgErr.Field != "endpoint" {
		t.Errorf("Field = %q, want endpoint", cfgErr.Field)
	}
}

func TestNew_AutoEnables(t *testing.T) {
	proc := newFakeProcess()
	c, err := New("https://api.example.com/v1",
		WithProcess(proc),
		WithTransport(&mockTransport{}),
		WithLogger(&recordingLogger{}),
	)
	require.NoError(t, err)
	defer c.Disable()

	assert.True(t, c.Enabled())
	assert.Len(t, proc.Listeners(EventUncaughtException), 1)
	assert.Len(t, proc.Listeners(EventUnhandledRejection), 1)
}

func TestNew_WithoutAutoEnable(t *testing.T) {
	c, proc, _, _ := newTestClient()

	assert.False(t, c.Enabled())
	assert.Empty(t, proc.Listeners(EventUncaughtException))
	assert.Empty(t, proc.Listeners(EventUnhandledRejection))
}

func TestFromAPIKey_Defaults(t *testing.T) {
	proc := newFakeProcess()
	c, err := FromAPIKey("apikey", WithProcess(proc), WithLogger(&recordingLogger{}), WithoutAutoEnable())
	require.NoError(t, err)
	defer c.Disable()

	assert.Equal(t, DefaultEndpoint, c.Endpoint())
	// FromAPIKey always enables.
	assert.True(t, c.Enabled())

	ht, ok := c.transport.(*HTTPTransport)
	require.True(t, ok, "default transport should be HTTP")
	assert.Equal(t, "https://api.ohcrash.com/v1/errors", ht.URL())
	assert.Equal(t, "apikey", ht.apiKey)
}

func TestFromAPIKey_CustomEndpoint(t *testing.T) {
	c, err := FromAPIKey("apikey",
		WithEndpoint("https://errors.internal/v2"),
		WithProcess(newFakeProcess()),
	)
	require.NoError(t, err)
	defer c.Disable()

	assert.Equal(t, "https://errors.internal/v2", c.Endpoint())
}

func TestFromAPIKey_MissingKey(t *testing.T) {
	_, err := FromAPIKey("")
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestReport_DefaultScenario(t *testing.T) {
	c, _, transport, _ := newTestClient()

	outcome := <-c.Report(context.Background(), NewError("boom"))
	require.NoError(t, outcome.Err)

	reports := transport.getReports()
	require.Len(t, reports, 1)
	got := reports[0]
	assert.Equal(t, "Error", got.Name)
	assert.Equal(t, "boom", got.Message)
	assert.NotEmpty(t, got.Stack)
	assert.Equal(t, Props{"runtime": "go-test"}, got.Props)
	assert.Equal(t, got.ID, outcome.ReportID)
	assert.Equal(t, ChannelManual, got.Channel)
}

func TestReport_Labels(t *testing.T) {
	c, _, transport, _ := newTestClient(WithGlobalProps(Props{"env": "production"}))

	<-c.Report(context.Background(), NewError("boom"), Labels{"critical"})

	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Equal(t, Props{
		"runtime": "go-test",
		"env":     "production",
		"labels":  []string{"critical"},
	}, reports[0].Props)
}

func TestReport_MergesGlobalAndCallSiteProps(t *testing.T) {
	c, _, transport, _ := newTestClient(WithGlobalProps(Props{"env": "production"}))

	<-c.Report(context.Background(), NewError("boom"), Props{"user": "a@b.com"})

	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Equal(t, Props{
		"env":     "production",
		"user":    "a@b.com",
		"runtime": "go-test",
	}, reports[0].Props)
}

func TestReport_CallSiteWins(t *testing.T) {
	c, _, transport, _ := newTestClient(WithGlobalProps(Props{"env": "production", "region": "us"}))

	<-c.Report(context.Background(), NewError("boom"),
		Props{"env": "staging"},
		Props{"runtime": "custom"},
	)

	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Equal(t, Props{
		"env":     "staging",
		"region":  "us",
		"runtime": "custom",
	}, reports[0].Props)
}

func TestReport_GlobalPropsAreCopied(t *testing.T) {
	global := Props{"env": "production"}
	c, _, transport, _ := newTestClient(WithGlobalProps(global))
	global["env"] = "mutated"

	<-c.Report(context.Background(), NewError("boom"))

	assert.Equal(t, "production", transport.getReports()[0].Props["env"])
}

func TestReport_NilError(t *testing.T) {
	c, _, transport, _ := newTestClient()

	outcome := <-c.Report(context.Background(), nil)
	require.NoError(t, outcome.Err)

	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].Name)
	assert.Empty(t, reports[0].Message)
	assert.Empty(t, reports[0].Stack)
	assert.NotNil(t, reports[0].Props)
}

func TestReport_PlainError(t *testing.T) {
	c, _, transport, _ := newTestClient()

	<-c.Report(context.Background(), errors.New("plain"))

	got := transport.getReports()[0]
	assert.Equal(t, "errors.errorString", got.Name)
	assert.Equal(t, "plain", got.Message)
	assert.Empty(t, got.Stack)
}

func TestReport_DoesNotLog(t *testing.T) {
	c, _, _, logger := newTestClient()

	<-c.Report(context.Background(), NewError("boom"))

	assert.Empty(t, logger.getLogs())
	assert.Empty(t, logger.getErrors())
}

func TestReport_DeliveryFailureIsContained(t *testing.T) {
	c, _, transport, logger := newTestClient()
	transport.sendErr = errors.New("connection refused")
	c.Enable()
	defer c.Disable()

	outcome := <-c.Report(context.Background(), NewError("boom"))

	require.Error(t, outcome.Err)
	assert.Contains(t, outcome.Err.Error(), "connection refused")

	// Exactly one report; the failure is logged, not re-captured.
	require.NoError(t, c.Flush(context.Background()))
	assert.Len(t, transport.getReports(), 1)
	errs := logger.getErrors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "connection refused")
}

func TestReport_TransportPanicIsContained(t *testing.T) {
	logger := &recordingLogger{}
	c, err := New("https://api.example.com/v1",
		WithProcess(newFakeProcess()),
		WithTransport(panicTransport{}),
		WithLogger(logger),
		WithoutAutoEnable(),
	)
	require.NoError(t, err)

	outcome := <-c.Report(context.Background(), NewError("boom"))

	require.Error(t, outcome.Err)
	assert.Contains(t, outcome.Err.Error(), "transport panicked")
	assert.Len(t, logger.getErrors(), 1)
}

type panicTransport struct{}

func (panicTransport) Send(ctx context.Context, report Report) error { panic("send exploded") }
func (panicTransport) Flush(ctx context.Context) error               { return nil }
func (panicTransport) Close() error                                  { return nil }

func TestReport_IgnoresCallerCancellation(t *testing.T) {
	c, _, transport, _ := newTestClient()
	transport.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := c.Report(ctx, NewError("boom"))
	cancel()
	close(transport.gate)

	outcome := <-done
	require.NoError(t, outcome.Err)
	assert.Len(t, transport.getReports(), 1)
}

func TestReport_ChannelClosedAfterOutcome(t *testing.T) {
	c, _, _, _ := newTestClient()

	done := c.Report(context.Background(), NewError("boom"))
	<-done
	_, ok := <-done
	assert.False(t, ok, "outcome channel should be closed after one value")
}

func TestReport_ContextIDFromContext(t *testing.T) {
	c, _, transport, _ := newTestClient()

	ctx := WithContextID(context.Background(), 42)
	<-c.Report(ctx, NewError("boom"))

	got := transport.getReports()[0]
	require.NotNil(t, got.ContextID)
	assert.Equal(t, uint64(42), *got.ContextID)
	assert.NotNil(t, got.System)
	assert.Len(t, got.Fingerprint, 32)
}

func TestReport_Scrubbing(t *testing.T) {
	c, _, transport, _ := newTestClient(WithDefaultScrubbing())

	<-c.Report(context.Background(), NewError("login failed password=hunter2"),
		Props{"api_token": "abc", "user": "a@b.com", "count": 3})

	got := transport.getReports()[0]
	assert.NotContains(t, got.Message, "hunter2")
	assert.Equal(t, "[REDACTED]", got.Props["api_token"])
	assert.Equal(t, "[REDACTED]", got.Props["user"])
	assert.Equal(t, float64(3), got.Props["count"])
	assert.Equal(t, "go-test", got.Props["runtime"])
}

func TestSend_PassesThrough(t *testing.T) {
	c, _, transport, logger := newTestClient()
	transport.sendErr = errors.New("down")

	err := c.Send(context.Background(), Report{Name: "Error", Message: "manual"})

	require.Error(t, err)
	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Equal(t, "manual", reports[0].Message)
	assert.NotNil(t, reports[0].Props)
	assert.Empty(t, logger.getErrors(), "Send should not log")
}

func TestFlush_WaitsForInFlight(t *testing.T) {
	c, _, transport, _ := newTestClient()
	transport.gate = make(chan struct{})

	c.Report(context.Background(), NewError("one"))
	c.Report(context.Background(), NewError("two"))

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(transport.gate)
	}()

	require.NoError(t, c.Flush(context.Background()))
	assert.Len(t, transport.getReports(), 2)
	assert.Equal(t, 1, transport.flushed)
}

func TestFlush_ConcurrentWithReport(t *testing.T) {
	c, _, transport, _ := newTestClient()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-c.Report(context.Background(), NewError("boom"))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Flush(context.Background()))
		}()
	}
	wg.Wait()

	require.NoError(t, c.Flush(context.Background()))
	assert.Len(t, transport.getReports(), n)
}

func TestFlush_NothingInFlight(t *testing.T) {
	c, _, transport, _ := newTestClient()

	require.NoError(t, c.Flush(context.Background()))
	<-c.Report(context.Background(), NewError("boom"))
	require.NoError(t, c.Flush(context.Background()))

	assert.Len(t, transport.getReports(), 1)
}

func TestFlush_ContextDeadline(t *testing.T) {
	c, _, transport, _ := newTestClient()
	transport.gate = make(chan struct{})
	defer close(transport.gate)

	c.Report(context.Background(), NewError("stuck"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.Flush(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose_DisablesAndClosesTransport(t *testing.T) {
	c, proc, transport, _ := newTestClient()
	c.Enable()

	require.NoError(t, c.Close())

	assert.False(t, c.Enabled())
	assert.Empty(t, proc.Listeners(EventUncaughtException))
	assert.True(t, transport.closed)
}

func TestCapture_LogsStack(t *testing.T) {
	c, proc, transport, logger := newTestClient()
	c.Enable()
	defer c.Disable()

	proc.Emit(EventUnhandledRejection, NewError("rejected"))
	require.NoError(t, c.Flush(context.Background()))

	logs := logger.getLogs()
	require.Len(t, logs, 1)
	assert.True(t, strings.HasPrefix(logs[0], "Error: rejected\n"), "log = %q", logs[0])
	assert.Contains(t, logs[0], "goroutine")

	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Equal(t, ChannelRejection, reports[0].Channel)
}

func TestCapture_NonErrorValue(t *testing.T) {
	c, proc, transport, logger := newTestClient()
	c.Enable()
	defer c.Disable()

	proc.Emit(EventUnhandledRejection, "just a string")
	require.NoError(t, c.Flush(context.Background()))

	assert.Equal(t, []string{"just a string"}, logger.getLogs())
	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].Name)
	assert.Equal(t, "just a string", reports[0].Message)
}

func TestReport_TypedNilError(t *testing.T) {
	c, _, transport, _ := newTestClient()

	var err *Error
	outcome := <-c.Report(context.Background(), err)

	require.NoError(t, outcome.Err)
	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].Name)
	assert.Empty(t, reports[0].Message)
	assert.Empty(t, reports[0].Stack)
}

func TestCapture_TypedNilPanicError(t *testing.T) {
	c, proc, transport, logger := newTestClient()
	c.Enable()
	defer c.Disable()

	var err *PanicError
	require.NotPanics(t, func() {
		proc.Emit(EventUnhandledRejection, err)
	})
	require.NoError(t, c.Flush(context.Background()))

	assert.Len(t, logger.getLogs(), 1)
	reports := transport.getReports()
	require.Len(t, reports, 1)
	assert.Equal(t, "panic", reports[0].Name)
	assert.Equal(t, ChannelRejection, reports[0].Channel)
}
