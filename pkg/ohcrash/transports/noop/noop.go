// Package noop provides a transport that discards all reports.
// Useful for tests and for running a client without delivery.
package noop

import (
	"context"

	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

type transport struct{}

// New creates a transport that discards all reports.
// All methods return nil and perform no operations.
func New() ohcrash.Transport {
	return transport{}
}

// Send discards the report and returns nil.
func (transport) Send(ctx context.Context, report ohcrash.Report) error {
	return nil
}

// Flush is a no-op and returns nil.
func (transport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op and returns nil.
func (transport) Close() error {
	return nil
}
