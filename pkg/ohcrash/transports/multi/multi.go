// Package multi provides a transport that fans out to several transports.
// Every transport receives every report; errors are aggregated.
package multi

import (
	"context"
	"errors"

	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

type transport struct {
	transports []ohcrash.Transport
}

// New creates a transport that sends to each of transports in order.
// Nil entries are skipped. Errors are aggregated via errors.Join.
func New(transports ...ohcrash.Transport) ohcrash.Transport {
	kept := make([]ohcrash.Transport, 0, len(transports))
	for _, t := range transports {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &transport{transports: kept}
}

// Send delivers the report to every transport, even if some fail.
func (m *transport) Send(ctx context.Context, report ohcrash.Report) error {
	var errs []error
	for _, t := range m.transports {
		if err := t.Send(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush calls Flush on all transports, collecting any errors.
func (m *transport) Flush(ctx context.Context) error {
	var errs []error
	for _, t := range m.transports {
		if err := t.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on all transports, collecting any errors.
func (m *transport) Close() error {
	var errs []error
	for _, t := range m.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
