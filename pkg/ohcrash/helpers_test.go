package ohcrash

import (
	"context"
	"sync"
)

// fakeProcess is an EventSource that records exits instead of terminating.
type fakeProcess struct {
	*Process

	mu    sync.Mutex
	exits []int
}

func newFakeProcess() *fakeProcess {
	fp := &fakeProcess{}
	fp.Process = NewProcess(func(code int) {
		fp.mu.Lock()
		defer fp.mu.Unlock()
		fp.exits = append(fp.exits, code)
	})
	return fp
}

func (p *fakeProcess) exitCodes() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.exits))
	copy(out, p.exits)
	return out
}

// recordingLogger captures log output.
type recordingLogger struct {
	mu     sync.Mutex
	logs   []string
	errors []string
}

func (l *recordingLogger) Log(v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, sprintln(v...))
}

func (l *recordingLogger) Error(v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, sprintln(v...))
}

func (l *recordingLogger) getLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.logs...)
}

func (l *recordingLogger) getErrors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

// mockTransport captures reports. When gate is set, Send blocks until it is
// closed.
type mockTransport struct {
	mu      sync.Mutex
	reports []Report
	sendErr error
	gate    chan struct{}
	flushed int
	closed  bool
}

func (t *mockTransport) Send(ctx context.Context, report Report) error {
	if t.gate != nil {
		<-t.gate
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reports = append(t.reports, report)
	return t.sendErr
}

func (t *mockTransport) Flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushed++
	return nil
}

func (t *mockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *mockTransport) getReports() []Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]Report, len(t.reports))
	copy(result, t.reports)
	return result
}

// newTestClient builds a disabled client on fake host handles.
func newTestClient(opts ...Option) (*Client, *fakeProcess, *mockTransport, *recordingLogger) {
	proc := newFakeProcess()
	transport := &mockTransport{}
	logger := &recordingLogger{}

	base := []Option{
		WithProcess(proc),
		WithTransport(transport),
		WithLogger(logger),
		WithRuntimeIdentity("go-test"),
		WithoutAutoEnable(),
	}
	c, err := New("https://api.example.com/v1", append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	return c, proc, transport, logger
}
