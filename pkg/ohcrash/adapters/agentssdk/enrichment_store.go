// enrichment_store.go holds per-run context captured by the hooks so the
// runner wrapper can attach it to reports.

package agentssdk

import (
	"container/list"
	"sync"
)

// Enrichment is the context captured from hooks during one run.
type Enrichment struct {
	// AgentName is the agent that was running.
	AgentName string

	// Model is the LLM model of the most recent call.
	Model string

	// ToolName is the tool of the most recent call.
	ToolName string

	// ToolCallID is the ID of the most recent tool call.
	ToolCallID string

	// Operation is the kind of operation in progress (tool, llm).
	Operation string

	// OperationID identifies the operation in progress.
	OperationID string

	operationHistory *operationHistoryBuffer
	historySize      int
}

// RecordOperation appends rec to the run's operation history.
func (e *Enrichment) RecordOperation(rec OperationRecord) {
	if e.operationHistory == nil {
		e.operationHistory = newOperationHistoryBuffer(e.historySize)
	}
	e.operationHistory.Add(rec)
}

// UpdateOperation applies fn to the newest operation accepted by match.
func (e *Enrichment) UpdateOperation(match func(OperationRecord) bool, fn func(*OperationRecord)) bool {
	if e.operationHistory == nil {
		return false
	}
	return e.operationHistory.UpdateLatest(match, fn)
}

// GetOperationHistory returns the recorded operations, oldest first.
func (e Enrichment) GetOperationHistory() []OperationRecord {
	if e.operationHistory == nil {
		return []OperationRecord{}
	}
	return e.operationHistory.GetAll()
}

func (e Enrichment) clone() Enrichment {
	if e.operationHistory != nil {
		e.operationHistory = e.operationHistory.clone()
	}
	return e
}

// EnrichmentStore is per-run enrichment storage. Implementations must be safe
// for concurrent use.
type EnrichmentStore interface {
	// Update applies fn to the enrichment for runID, creating it if needed.
	// fn runs under the store lock and must not call back into the store.
	Update(runID string, fn func(e *Enrichment))

	// Get returns a copy of the enrichment for runID.
	Get(runID string) (Enrichment, bool)

	// Delete removes the enrichment for runID.
	Delete(runID string)
}

// DefaultMaxRuns bounds the runs an in-memory store tracks at once. Runs whose
// enrichment is never deleted, such as abandoned streams, are evicted oldest
// first.
const DefaultMaxRuns = 1024

type storeEntry struct {
	runID      string
	enrichment *Enrichment
}

type inMemoryEnrichmentStore struct {
	mu          sync.RWMutex
	data        map[string]*list.Element
	order       *list.List
	historySize int
	maxRuns     int
}

// NewEnrichmentStore returns an in-memory store keeping DefaultHistorySize
// operations for each of up to DefaultMaxRuns runs.
func NewEnrichmentStore() EnrichmentStore {
	return NewEnrichmentStoreWithLimits(DefaultHistorySize, DefaultMaxRuns)
}

// NewEnrichmentStoreWithHistory returns an in-memory store keeping size
// operations per run. A non-positive size means DefaultHistorySize.
func NewEnrichmentStoreWithHistory(size int) EnrichmentStore {
	return NewEnrichmentStoreWithLimits(size, DefaultMaxRuns)
}

// NewEnrichmentStoreWithLimits returns an in-memory store keeping historySize
// operations for each of up to maxRuns runs. Non-positive values mean the
// defaults.
func NewEnrichmentStoreWithLimits(historySize, maxRuns int) EnrichmentStore {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	if maxRuns <= 0 {
		maxRuns = DefaultMaxRuns
	}
	return &inMemoryEnrichmentStore{
		data:        make(map[string]*list.Element),
		order:       list.New(),
		historySize: historySize,
		maxRuns:     maxRuns,
	}
}

func (s *inMemoryEnrichmentStore) Update(runID string, fn func(e *Enrichment)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.data[runID]
	if !ok {
		for s.order.Len() >= s.maxRuns {
			oldest := s.order.Front()
			s.order.Remove(oldest)
			delete(s.data, oldest.Value.(*storeEntry).runID)
		}
		elem = s.order.PushBack(&storeEntry{
			runID:      runID,
			enrichment: &Enrichment{historySize: s.historySize},
		})
		s.data[runID] = elem
	}
	fn(elem.Value.(*storeEntry).enrichment)
}

func (s *inMemoryEnrichmentStore) Get(runID string) (Enrichment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elem, ok := s.data[runID]
	if !ok {
		return Enrichment{}, false
	}
	return elem.Value.(*storeEntry).enrichment.clone(), true
}

func (s *inMemoryEnrichmentStore) Delete(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.data[runID]; ok {
		s.order.Remove(elem)
		delete(s.data, runID)
	}
}
