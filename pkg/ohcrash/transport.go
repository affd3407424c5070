// transport.go defines the Transport interface for report destinations.

package ohcrash

import "context"

// Transport delivers reports. Implementations must be safe for concurrent use.
type Transport interface {
	// Send performs one delivery attempt. It does not retry.
	Send(ctx context.Context, report Report) error

	// Flush ensures anything buffered is delivered.
	// For synchronous transports, this may be a no-op.
	Flush(ctx context.Context) error

	// Close releases resources held by the transport.
	// After Close is called, Send should return ErrTransportClosed.
	Close() error
}
