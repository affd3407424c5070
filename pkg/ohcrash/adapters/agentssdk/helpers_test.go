package agentssdk

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"
	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

// capturingTransport records every report it is given.
type capturingTransport struct {
	mu      sync.Mutex
	reports []ohcrash.Report
	sendErr error
}

func (t *capturingTransport) Send(ctx context.Context, report ohcrash.Report) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.reports = append(t.reports, report)
	return nil
}

func (t *capturingTransport) Flush(ctx context.Context) error { return nil }

func (t *capturingTransport) Close() error { return nil }

func (t *capturingTransport) getReports() []ohcrash.Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ohcrash.Report(nil), t.reports...)
}

// newTestReporter returns a disabled client delivering to a capturing transport.
func newTestReporter(t *testing.T, opts ...ohcrash.Option) (*ohcrash.Client, *capturingTransport) {
	t.Helper()
	transport := &capturingTransport{}
	base := []ohcrash.Option{
		ohcrash.WithTransport(transport),
		ohcrash.WithLogger(ohcrash.NewConsoleLogger(io.Discard, io.Discard)),
		ohcrash.WithRuntimeIdentity("go-test"),
		ohcrash.WithoutAutoEnable(),
	}
	client, err := ohcrash.New("http://collector.invalid", append(base, opts...)...)
	if err != nil {
		t.Fatalf("ohcrash.New: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, transport
}

// simulateRun drives a WrappedRunner's capture path the way Run does, with fn
// standing in for the inner runner.
func simulateRun(w *WrappedRunner, ctx context.Context, session any, fn func(ctx context.Context, runID string) error) error {
	ctx, runID := w.startRun(ctx, session)
	defer w.enrichments.Delete(runID)
	defer w.capturePanic(ctx, runID)

	if err := fn(ctx, runID); err != nil {
		w.captureError(ctx, runID, err)
		return err
	}
	return nil
}

// mockSession provides a cxdb context ID, or fails to.
type mockSession struct {
	contextID uint64
	hasID     bool
}

func (s *mockSession) ContextID(ctx context.Context) (uint64, error) {
	if !s.hasID {
		return 0, errors.New("no context ID")
	}
	return s.contextID, nil
}

// mockRunHooks records which inner hooks were called.
type mockRunHooks struct {
	mu        sync.Mutex
	calls     map[string]int
	returnErr error
}

func newMockRunHooks() *mockRunHooks {
	return &mockRunHooks{calls: map[string]int{}}
}

func (m *mockRunHooks) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
	return m.returnErr
}

func (m *mockRunHooks) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockRunHooks) OnAgentStart(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent) error {
	return m.record("agent_start")
}

func (m *mockRunHooks) OnAgentEnd(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent, result agents.RunResult) error {
	return m.record("agent_end")
}

func (m *mockRunHooks) OnHandoff(ctx context.Context, runCtx *agents.RunContext, from *agents.Agent, to *agents.Agent) error {
	return m.record("handoff")
}

func (m *mockRunHooks) OnToolStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, call llmsdk.ToolCall) error {
	return m.record("tool_start")
}

func (m *mockRunHooks) OnToolEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, output string) error {
	return m.record("tool_end")
}

func (m *mockRunHooks) OnLLMStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, req llmsdk.Request) error {
	return m.record("llm_start")
}

func (m *mockRunHooks) OnLLMEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, resp llmsdk.Response) error {
	return m.record("llm_end")
}
