// instrument.go is the entry point for reporting ai-agents-sdk runs.

package agentssdk

import (
	"log"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

// WrapOption configures a WrappedRunner.
type WrapOption func(*WrappedRunner)

// WithLogger sets the logger used when a report cannot be delivered.
func WithLogger(logger *log.Logger) WrapOption {
	return func(w *WrappedRunner) {
		w.logger = logger
	}
}

// WithEnrichmentStore sets the store shared between the hooks and the wrapper.
func WithEnrichmentStore(store EnrichmentStore) WrapOption {
	return func(w *WrappedRunner) {
		if store != nil {
			w.enrichments = store
		}
	}
}

// WithToolPayloads keeps scrubbed tool input and output in the operation
// history.
func WithToolPayloads(cfg ohcrash.ScrubberConfig) WrapOption {
	return func(w *WrappedRunner) {
		w.scrubber = ohcrash.NewScrubber(cfg)
	}
}

// Instrument wraps a Runner so that run errors and panics are reported.
//
//	client, _ := ohcrash.New(endpoint, ohcrash.WithAPIKey(key))
//	wrapped := agentssdk.Instrument(agents.NewRunner(llm), client)
//	result, err := wrapped.Run(ctx, agent, input, session, nil)
func Instrument(baseRunner *agents.Runner, reporter ohcrash.Reporter, opts ...WrapOption) *WrappedRunner {
	wrapper := NewWrappedRunner(baseRunner, reporter, nil, nil)
	for _, opt := range opts {
		opt(wrapper)
	}
	return wrapper
}
