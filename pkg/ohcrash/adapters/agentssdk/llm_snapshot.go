// llm_snapshot.go builds LLM operation records from requests and responses.
// Only metadata is copied; prompts and completions stay out of reports.

package agentssdk

import (
	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"
)

// maxSnapshotMessages bounds how many trailing messages are described.
const maxSnapshotMessages = 10

func buildLLMOperation(req llmsdk.Request) *LLMOperation {
	op := &LLMOperation{
		Model:        req.Model,
		Provider:     string(req.Provider),
		MessageCount: len(req.Messages),
		Temperature:  req.Temperature,
		TopP:         req.TopP,
		MaxTokens:    req.MaxTokens,
		ToolCount:    len(req.Tools),
	}

	for _, tool := range req.Tools {
		op.ToolNames = append(op.ToolNames, tool.Name)
	}

	messages := req.Messages
	if len(messages) > maxSnapshotMessages {
		messages = messages[len(messages)-maxSnapshotMessages:]
	}
	op.Messages = make([]MessageMetadata, 0, len(messages))
	for _, msg := range messages {
		op.Messages = append(op.Messages, buildMessageMetadata(msg))
	}

	return op
}

func buildMessageMetadata(msg llmsdk.Message) MessageMetadata {
	metadata := MessageMetadata{
		Role:       string(msg.Role),
		PartsCount: len(msg.Parts),
	}
	for _, part := range msg.Parts {
		metadata.ContentLength += len(part.Text)
		if part.ImageData != nil {
			metadata.HasImage = true
		}
		if part.ToolCall != nil {
			metadata.HasToolCall = true
		}
		if part.ToolResult != nil {
			metadata.HasToolResult = true
		}
	}
	return metadata
}

func updateLLMOperationWithResponse(op *LLMOperation, resp llmsdk.Response) {
	if op == nil {
		return
	}
	op.ResponseID = resp.ID
	op.FinishReason = string(resp.FinishReason)
	op.PromptTokens = resp.Usage.PromptTokens
	op.CompletionTokens = resp.Usage.CompletionTokens
	op.TotalTokens = resp.Usage.TotalTokens

	op.ToolCallCount = len(resp.ToolCalls)
	op.ToolCallNames = nil
	for _, tc := range resp.ToolCalls {
		op.ToolCallNames = append(op.ToolCallNames, tc.Name)
	}
}
