// Package ohcrash provides process-level crash and error reporting.
//
// A Client attaches to a host's global error channels, turns every captured
// error into a normalized Report and delivers it to a remote collection
// endpoint over HTTP.
//
// # Core Components
//
//   - Report: the normalized record {name, message, stack, props}
//   - Client: owns configuration; exposes Enable, Disable, Report and Send
//   - Transport: delivers a Report (HTTP by default; stderr, multi, noop, cxdb, metrics)
//   - Process / Window: host handles that emit uncaught exceptions, unhandled
//     rejections and global error callbacks
//
// # Quick Start
//
//	client, err := ohcrash.New("https://api.example.com/v1",
//	    ohcrash.WithGlobalProps(ohcrash.Props{"env": "production"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Panics in goroutines started through the process handle are reported
//	// before the process exits.
//	ohcrash.DefaultProcess.Go(func() error {
//	    return work()
//	})
//
// Reports can also be sent by hand:
//
//	<-client.Report(ctx, err, ohcrash.Labels{"critical"})
//
// # Design Principles
//
//   - Nothing escapes the capture pipeline: delivery failures are logged and
//     returned in Outcome, never re-reported
//   - Enable and Disable are idempotent; handlers have stable identity
//   - A fatal error terminates the process at most once, after its report settles
package ohcrash
