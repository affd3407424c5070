// wrapper.go wraps agents.Runner so run errors and panics are reported.
// The hooks only collect enrichment; this is where reports are sent.

package agentssdk

import (
	"context"
	"log"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

// WrappedRunner reports the errors and panics of an agents.Runner.
type WrappedRunner struct {
	inner       *agents.Runner
	reporter    ohcrash.Reporter
	enrichments EnrichmentStore
	scrubber    *ohcrash.Scrubber
	logger      *log.Logger
}

// NewWrappedRunner wraps inner. A nil store gets a fresh in-memory store;
// logger may be nil.
func NewWrappedRunner(inner *agents.Runner, reporter ohcrash.Reporter, store EnrichmentStore, logger *log.Logger) *WrappedRunner {
	if store == nil {
		store = NewEnrichmentStore()
	}
	return &WrappedRunner{
		inner:       inner,
		reporter:    reporter,
		enrichments: store,
		logger:      logger,
	}
}

// Run executes the agent, reporting a returned error or a panic. Panics are
// re-raised after their report settles.
func (w *WrappedRunner) Run(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (agents.RunResult, error) {
	ctx, runID := w.startRun(ctx, session)
	defer w.enrichments.Delete(runID)
	defer w.capturePanic(ctx, runID)

	result, err := w.inner.Run(ctx, agent, input, session, w.wrapRunConfig(cfg))
	if err != nil {
		w.captureError(ctx, runID, err)
	}
	return result, err
}

// RunOnce executes a single turn without a session.
func (w *WrappedRunner) RunOnce(ctx context.Context, agent *agents.Agent, input string, cfg *agents.RunConfig) (agents.RunResult, error) {
	ctx, runID := w.startRun(ctx, nil)
	defer w.enrichments.Delete(runID)
	defer w.capturePanic(ctx, runID)

	result, err := w.inner.RunOnce(ctx, agent, input, w.wrapRunConfig(cfg))
	if err != nil {
		w.captureError(ctx, runID, err)
	}
	return result, err
}

// RunStream starts a streaming run. Only errors returned while starting the
// stream are reported. The run's enrichment is kept until ctx is done; a
// stream on a context that never ends is eventually evicted by the store.
func (w *WrappedRunner) RunStream(ctx context.Context, agent *agents.Agent, input string, session agents.Session, cfg *agents.RunConfig) (*agents.StreamingRun, error) {
	ctx, runID := w.startRun(ctx, session)
	defer w.capturePanic(ctx, runID)

	stream, err := w.inner.RunStream(ctx, agent, input, session, w.wrapRunConfig(cfg))
	if err != nil {
		w.captureError(ctx, runID, err)
		w.enrichments.Delete(runID)
		return stream, err
	}
	w.releaseOnDone(ctx, runID)
	return stream, nil
}

// releaseOnDone deletes the run's enrichment once ctx is done.
func (w *WrappedRunner) releaseOnDone(ctx context.Context, runID string) {
	context.AfterFunc(ctx, func() {
		w.enrichments.Delete(runID)
	})
}

// startRun assigns a run ID and links the context to the session's cxdb
// context when the session provides one.
func (w *WrappedRunner) startRun(ctx context.Context, session any) (context.Context, string) {
	runID := uuid.NewString()
	ctx = ohcrash.WithRunID(ctx, runID)
	if provider, ok := session.(ohcrash.ContextIDProvider); ok {
		if id, err := provider.ContextID(ctx); err == nil {
			ctx = ohcrash.WithContextID(ctx, id)
		}
	}
	return ctx, runID
}

// wrapRunConfig clones cfg and installs a HookAdapter around its hooks.
func (w *WrappedRunner) wrapRunConfig(cfg *agents.RunConfig) *agents.RunConfig {
	var cloned agents.RunConfig
	if cfg != nil {
		cloned = *cfg
	}
	cloned.Hooks = NewHookAdapter(w.enrichments, cloned.Hooks, w.scrubber, w.logger)
	return &cloned
}

func (w *WrappedRunner) captureError(ctx context.Context, runID string, err error) {
	w.markFailed(runID, err.Error())
	enrichment, _ := w.enrichments.Get(runID)
	w.report(ctx, err, buildErrorProps(err, runID, enrichment))
}

// capturePanic must be deferred directly. It reports the panic, waits for the
// report and panics again with the original value.
func (w *WrappedRunner) capturePanic(ctx context.Context, runID string) {
	r := recover()
	if r == nil {
		return
	}
	perr := ohcrash.NewPanicError(r, debug.Stack())
	w.markFailed(runID, perr.Error())
	enrichment, _ := w.enrichments.Get(runID)
	w.report(ctx, perr, buildPanicProps(runID, enrichment))
	panic(r)
}

// markFailed stamps the failure on the operation that was still running.
func (w *WrappedRunner) markFailed(runID, msg string) {
	w.enrichments.Update(runID, func(e *Enrichment) {
		e.UpdateOperation(func(r OperationRecord) bool { return !r.Completed }, func(r *OperationRecord) {
			r.Error = msg
		})
	})
}

// report sends the report and waits for it to settle. Delivery failures are
// logged, never returned.
func (w *WrappedRunner) report(ctx context.Context, err error, props ohcrash.Props) {
	if w.reporter == nil {
		return
	}
	outcome := <-w.reporter.Report(ctx, err, props)
	if outcome.Err != nil && w.logger != nil {
		w.logger.Printf("ohcrash: failed to report error: %v", outcome.Err)
	}
}

// Inner returns the wrapped Runner.
func (w *WrappedRunner) Inner() *agents.Runner {
	return w.inner
}
