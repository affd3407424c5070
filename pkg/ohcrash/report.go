// report.go defines the canonical report data structure for ohcrash.

package ohcrash

import "time"

// Channel identifies where a report was captured.
type Channel string

const (
	// ChannelException is the uncaught-exception channel (process hosts).
	ChannelException Channel = "exception"

	// ChannelRejection is the unhandled-rejection channel (process hosts).
	ChannelRejection Channel = "rejection"

	// ChannelWindow is the global error callback (window hosts).
	ChannelWindow Channel = "window"

	// ChannelManual marks reports sent through Client.Report.
	ChannelManual Channel = "manual"
)

// Props is a mapping from string keys to JSON-serializable values.
type Props map[string]any

// SystemState captures system metrics at the time of an error.
type SystemState struct {
	// MemoryBytes is the current memory allocation in bytes.
	MemoryBytes int64

	// GoroutineCount is the number of active goroutines.
	GoroutineCount int

	// UptimeMs is the process uptime in milliseconds.
	UptimeMs int64

	// HostName is the hostname of the machine where the error occurred.
	HostName string
}

// Report is the normalized, serializable record of a captured error.
// Only Name, Message, Stack and Props are part of the wire payload.
type Report struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`

	// Props is never nil. It is the shallow merge of the runtime identity,
	// the client's global props and the call-site attachments.
	Props Props `json:"props"`

	// Local fields, used by transports other than HTTP.

	// ID is a unique identifier for this report (UUID).
	ID string `json:"-"`

	// Timestamp is when the error was captured.
	Timestamp time.Time `json:"-"`

	// Fingerprint is a hash for grouping similar errors.
	Fingerprint string `json:"-"`

	// Channel is where the error was captured.
	Channel Channel `json:"-"`

	// ContextID is the optional cxdb context ID for linking to conversation.
	// Uses pointer to distinguish "not set" from "zero value".
	ContextID *uint64 `json:"-"`

	// System captures system metrics at capture time.
	System *SystemState `json:"-"`
}

// Outcome is the settled result of one delivery attempt.
type Outcome struct {
	// ReportID is the ID of the delivered report.
	ReportID string

	// Err is nil on success. Delivery failures are reported here and in the
	// client's logger, never raised.
	Err error
}
