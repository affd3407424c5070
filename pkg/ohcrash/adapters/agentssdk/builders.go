// builders.go turns run enrichment into report props.

package agentssdk

import (
	"context"
	"errors"
	"strings"

	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

// Report prop keys set by the wrapper.
const (
	PropSeverity    = "severity"
	PropErrorType   = "error_type"
	PropRunID       = "run_id"
	PropAgent       = "agent"
	PropOperation   = "operation"
	PropOperationID = "operation_id"
	PropTool        = "tool"
	PropToolCallID  = "tool_call_id"
	PropModel       = "model"
	PropOperations  = "operations"
)

// Severity values.
const (
	SeverityError = "error"
	SeverityCrash = "crash"
)

// ErrorTypePanic is the error type of recovered panics.
const ErrorTypePanic = "panic"

var guardrailPatterns = []string{
	"guardrail",
	"content policy",
	"safety filter",
	"blocked by policy",
}

// buildErrorProps returns the props for a run that returned err.
func buildErrorProps(err error, runID string, enrichment Enrichment) ohcrash.Props {
	return buildProps(SeverityError, classifyError(err), runID, enrichment)
}

// buildPanicProps returns the props for a run that panicked.
func buildPanicProps(runID string, enrichment Enrichment) ohcrash.Props {
	return buildProps(SeverityCrash, ErrorTypePanic, runID, enrichment)
}

func buildProps(severity, errorType, runID string, enrichment Enrichment) ohcrash.Props {
	props := ohcrash.Props{
		PropSeverity:  severity,
		PropErrorType: errorType,
	}
	setIfNotEmpty(props, PropRunID, runID)
	setIfNotEmpty(props, PropAgent, enrichment.AgentName)
	setIfNotEmpty(props, PropOperation, enrichment.Operation)
	setIfNotEmpty(props, PropOperationID, enrichment.OperationID)
	setIfNotEmpty(props, PropTool, enrichment.ToolName)
	setIfNotEmpty(props, PropToolCallID, enrichment.ToolCallID)
	setIfNotEmpty(props, PropModel, enrichment.Model)

	if history := enrichment.GetOperationHistory(); len(history) > 0 {
		props[PropOperations] = history
	}
	return props
}

func setIfNotEmpty(props ohcrash.Props, key, value string) {
	if value != "" {
		props[key] = value
	}
}

// classifyError maps err to timeout, canceled, guardrail or error.
func classifyError(err error) string {
	switch {
	case err == nil:
		return "error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	msg := strings.ToLower(err.Error())
	for _, p := range guardrailPatterns {
		if strings.Contains(msg, p) {
			return "guardrail"
		}
	}
	return "error"
}
