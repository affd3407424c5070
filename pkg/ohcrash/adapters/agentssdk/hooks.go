// hooks.go records per-run enrichment and operation history from RunHooks.
// Reporting happens in the runner wrapper; the hooks never report.

package agentssdk

import (
	"context"
	"log"
	"time"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"
	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

// HookAdapter implements agents.RunHooks. It records enrichment for the run
// found in the context and delegates every call to the inner hooks.
type HookAdapter struct {
	store    EnrichmentStore
	inner    agents.RunHooks
	scrubber *ohcrash.Scrubber
	logger   *log.Logger
	now      func() time.Time
}

// NewHookAdapter wraps inner, which may be nil. Tool input and output are kept
// in the operation history only when scrubber is non-nil. logger may be nil.
func NewHookAdapter(store EnrichmentStore, inner agents.RunHooks, scrubber *ohcrash.Scrubber, logger *log.Logger) *HookAdapter {
	if store == nil {
		store = NewEnrichmentStore()
	}
	return &HookAdapter{
		store:    store,
		inner:    inner,
		scrubber: scrubber,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *HookAdapter) OnAgentStart(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent) error {
	if agent != nil {
		h.update(ctx, func(e *Enrichment) {
			e.AgentName = agent.Name()
		})
	}

	if h.inner != nil {
		return h.inner.OnAgentStart(ctx, runCtx, agent)
	}
	return nil
}

func (h *HookAdapter) OnAgentEnd(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent, result agents.RunResult) error {
	if h.inner != nil {
		return h.inner.OnAgentEnd(ctx, runCtx, agent, result)
	}
	return nil
}

func (h *HookAdapter) OnHandoff(ctx context.Context, runCtx *agents.RunContext, from *agents.Agent, to *agents.Agent) error {
	if to != nil {
		h.update(ctx, func(e *Enrichment) {
			e.AgentName = to.Name()
		})
	}

	if h.inner != nil {
		return h.inner.OnHandoff(ctx, runCtx, from, to)
	}
	return nil
}

// OnToolStart records the tool call as the current operation.
func (h *HookAdapter) OnToolStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, call llmsdk.ToolCall) error {
	op := &ToolOperation{
		Name:      tool.Name,
		CallID:    call.ID,
		InputSize: len(call.Arguments),
	}
	if h.scrubber != nil && len(call.Arguments) > 0 {
		op.Input = h.scrubber.ScrubJSON(string(call.Arguments))
	}

	h.update(ctx, func(e *Enrichment) {
		if agent != nil {
			e.AgentName = agent.Name()
		}
		e.Operation = OperationTool
		e.ToolName = tool.Name
		e.ToolCallID = call.ID
		e.OperationID = call.ID
		e.RecordOperation(OperationRecord{
			Kind:      OperationTool,
			Timestamp: h.now(),
			AgentName: e.AgentName,
			Tool:      op,
		})
	})

	if h.inner != nil {
		return h.inner.OnToolStart(ctx, runCtx, agent, tool, call)
	}
	return nil
}

// OnToolEnd completes the newest pending call of the tool.
func (h *HookAdapter) OnToolEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, output string) error {
	var scrubbed string
	if h.scrubber != nil && output != "" {
		scrubbed = h.scrubber.ScrubMessage(output)
	}

	h.completeOperation(ctx, pending(OperationTool, tool.Name), func(r *OperationRecord) {
		if r.Tool != nil {
			r.Tool.OutputSize = len(output)
			r.Tool.Output = scrubbed
		}
	})

	if h.inner != nil {
		return h.inner.OnToolEnd(ctx, runCtx, agent, tool, output)
	}
	return nil
}

// OnLLMStart records the LLM call as the current operation.
func (h *HookAdapter) OnLLMStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, req llmsdk.Request) error {
	op := buildLLMOperation(req)

	h.update(ctx, func(e *Enrichment) {
		if agent != nil {
			e.AgentName = agent.Name()
		}
		e.Operation = OperationLLM
		e.Model = req.Model
		e.RecordOperation(OperationRecord{
			Kind:      OperationLLM,
			Timestamp: h.now(),
			AgentName: e.AgentName,
			LLM:       op,
		})
	})

	if h.inner != nil {
		return h.inner.OnLLMStart(ctx, runCtx, agent, req)
	}
	return nil
}

// OnLLMEnd adds response metadata to the newest pending LLM call.
func (h *HookAdapter) OnLLMEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, resp llmsdk.Response) error {
	h.completeOperation(ctx, pending(OperationLLM, ""), func(r *OperationRecord) {
		updateLLMOperationWithResponse(r.LLM, resp)
	})

	if h.inner != nil {
		return h.inner.OnLLMEnd(ctx, runCtx, agent, resp)
	}
	return nil
}

// update applies fn to the enrichment of the run in ctx, if any.
func (h *HookAdapter) update(ctx context.Context, fn func(e *Enrichment)) {
	runID, ok := ohcrash.RunIDFromContext(ctx)
	if !ok {
		return
	}
	h.store.Update(runID, fn)
}

func (h *HookAdapter) completeOperation(ctx context.Context, match func(OperationRecord) bool, fn func(r *OperationRecord)) {
	runID, ok := ohcrash.RunIDFromContext(ctx)
	if !ok {
		return
	}
	now := h.now()
	var found bool
	h.store.Update(runID, func(e *Enrichment) {
		found = e.UpdateOperation(match, func(r *OperationRecord) {
			fn(r)
			r.finish(now)
		})
	})
	if !found && h.logger != nil {
		h.logger.Printf("ohcrash: no pending operation to complete for run %s", runID)
	}
}
