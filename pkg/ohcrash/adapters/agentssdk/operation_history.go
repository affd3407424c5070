// operation_history.go keeps a bounded, per-run history of LLM and tool calls
// so a report can show what the agent was doing before it failed.

package agentssdk

import "time"

// DefaultHistorySize is the number of operations kept per run.
const DefaultHistorySize = 10

// Operation kinds.
const (
	OperationLLM  = "llm"
	OperationTool = "tool"
)

// OperationRecord is one LLM or tool call. Records are attached to reports
// under the "operations" prop.
type OperationRecord struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Duration  int64     `json:"duration_ms,omitempty"`
	AgentName string    `json:"agent_name,omitempty"`

	LLM  *LLMOperation  `json:"llm,omitempty"`
	Tool *ToolOperation `json:"tool,omitempty"`

	// Completed is set once the matching end hook has run.
	Completed bool `json:"completed"`

	// Error is the run error when the run failed during this operation.
	Error string `json:"error,omitempty"`
}

// finish stamps the duration and marks the record completed.
func (r *OperationRecord) finish(now time.Time) {
	if !r.Timestamp.IsZero() {
		r.Duration = now.Sub(r.Timestamp).Milliseconds()
	}
	r.Completed = true
}

// clone returns a copy that shares nothing mutable with r.
func (r OperationRecord) clone() OperationRecord {
	if r.LLM != nil {
		llm := *r.LLM
		llm.Messages = append([]MessageMetadata(nil), r.LLM.Messages...)
		llm.ToolNames = append([]string(nil), r.LLM.ToolNames...)
		llm.ToolCallNames = append([]string(nil), r.LLM.ToolCallNames...)
		r.LLM = &llm
	}
	if r.Tool != nil {
		tool := *r.Tool
		r.Tool = &tool
	}
	return r
}

// LLMOperation is the metadata of one LLM call. Message text is never stored.
type LLMOperation struct {
	Model        string            `json:"model"`
	Provider     string            `json:"provider"`
	MessageCount int               `json:"message_count"`
	Messages     []MessageMetadata `json:"messages"`
	Temperature  *float32          `json:"temperature,omitempty"`
	TopP         *float32          `json:"top_p,omitempty"`
	MaxTokens    *int              `json:"max_tokens,omitempty"`
	ToolCount    int               `json:"tool_count"`
	ToolNames    []string          `json:"tool_names,omitempty"`

	// Filled in by OnLLMEnd.
	ResponseID       string   `json:"response_id,omitempty"`
	FinishReason     string   `json:"finish_reason,omitempty"`
	ToolCallCount    int      `json:"tool_call_count,omitempty"`
	ToolCallNames    []string `json:"tool_call_names,omitempty"`
	PromptTokens     int      `json:"prompt_tokens,omitempty"`
	CompletionTokens int      `json:"completion_tokens,omitempty"`
	TotalTokens      int      `json:"total_tokens,omitempty"`
}

// MessageMetadata describes the shape of a message without its content.
type MessageMetadata struct {
	Role          string `json:"role"`
	ContentLength int    `json:"content_length"`
	PartsCount    int    `json:"parts_count"`
	HasImage      bool   `json:"has_image,omitempty"`
	HasToolCall   bool   `json:"has_tool_call,omitempty"`
	HasToolResult bool   `json:"has_tool_result,omitempty"`
}

// ToolOperation is the metadata of one tool call. Input and Output are only
// filled when the wrapper has a scrubber, and are scrubbed.
type ToolOperation struct {
	Name       string `json:"name"`
	CallID     string `json:"call_id"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size,omitempty"`
	Input      string `json:"input,omitempty"`
	Output     string `json:"output,omitempty"`
}

// operationHistoryBuffer is a ring buffer of the most recent records.
type operationHistoryBuffer struct {
	records  []OperationRecord
	maxSize  int
	writeIdx int
}

func newOperationHistoryBuffer(size int) *operationHistoryBuffer {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &operationHistoryBuffer{maxSize: size}
}

// Add appends a record, overwriting the oldest once the buffer is full.
func (b *operationHistoryBuffer) Add(record OperationRecord) {
	if len(b.records) < b.maxSize {
		b.records = append(b.records, record)
		return
	}
	b.records[b.writeIdx] = record
	b.writeIdx = (b.writeIdx + 1) % b.maxSize
}

// GetAll returns copies of the records, oldest first.
func (b *operationHistoryBuffer) GetAll() []OperationRecord {
	result := make([]OperationRecord, 0, len(b.records))
	for i := range b.records {
		result = append(result, b.records[b.index(i)].clone())
	}
	return result
}

// UpdateLatest applies fn to the newest record for which match returns true.
// It reports whether a record matched.
func (b *operationHistoryBuffer) UpdateLatest(match func(OperationRecord) bool, fn func(*OperationRecord)) bool {
	for i := len(b.records) - 1; i >= 0; i-- {
		rec := &b.records[b.index(i)]
		if match == nil || match(*rec) {
			fn(rec)
			return true
		}
	}
	return false
}

// index maps a chronological position to a slot in records.
func (b *operationHistoryBuffer) index(i int) int {
	if len(b.records) < b.maxSize {
		return i
	}
	return (b.writeIdx + i) % b.maxSize
}

func (b *operationHistoryBuffer) clone() *operationHistoryBuffer {
	return &operationHistoryBuffer{
		records:  b.GetAll(),
		maxSize:  b.maxSize,
		writeIdx: 0,
	}
}

// pending matches the newest unfinished operation of the given kind. An empty
// tool name matches any tool.
func pending(kind, toolName string) func(OperationRecord) bool {
	return func(r OperationRecord) bool {
		if r.Kind != kind || r.Completed {
			return false
		}
		if kind == OperationTool && toolName != "" {
			return r.Tool != nil && r.Tool.Name == toolName
		}
		return true
	}
}
