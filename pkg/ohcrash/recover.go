// recover.go provides the Recover helper for standalone panic recovery.
// Use this in HTTP handlers, goroutines, or other code that is not started
// through a Process.

package ohcrash

import (
	"context"
	"runtime/debug"
)

// Recover captures a panic, reports it and returns the recovered value.
// It waits for the delivery to settle and does NOT re-panic.
//
// Use in defer:
//
//	func handler(ctx context.Context) {
//	    defer ohcrash.Recover(ctx, client)
//	    // code that might panic
//	}
//
// Recover must be deferred directly; called from inside another deferred
// function it sees no panic. Attachments are added to the report:
//
//	go func() {
//	    defer ohcrash.Recover(ctx, client, ohcrash.Labels{"worker"})
//	    work()
//	}()
func Recover(ctx context.Context, reporter Reporter, attachments ...Attachment) any {
	r := recover()
	if r == nil {
		return nil
	}

	if reporter != nil {
		// Outcome errors are already logged by the reporter.
		<-reporter.Report(ctx, NewPanicError(r, debug.Stack()), attachments...)
	}

	return r
}
