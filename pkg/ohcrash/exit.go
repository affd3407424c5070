// exit.go implements the single-flight exit guard on the uncaught-exception
// channel.

package ohcrash

import "context"

// ExitCode is passed to EventSource.Exit after a fatal error is reported.
const ExitCode = 1

type exitState int

const (
	exitListening exitState = iota
	exitExiting
)

func (s exitState) String() string {
	if s == exitExiting {
		return "exiting"
	}
	return "listening"
}

type exceptionHandler struct{ c *Client }

// HandleError logs and reports an uncaught exception. When this client is the
// only listener and exit is enabled, it first unregisters itself, then blocks
// until the report settles and terminates the process. Later captures are
// still reported but never schedule a second exit.
func (h *exceptionHandler) HandleError(value any) {
	c := h.c
	err := asError(value)
	c.logCaptured(err)

	owner := c.claimExit()
	done := c.dispatch(context.Background(), err, ChannelException)
	if !owner {
		return
	}

	<-done
	c.process.Exit(ExitCode)
}

// claimExit moves the guard to exiting when this client is the sole
// uncaught-exception listener. It reports whether the caller owns the exit.
func (c *Client) claimExit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.exitOnFatal || c.exit != exitListening {
		return false
	}

	listeners := c.process.Listeners(EventUncaughtException)
	if len(listeners) != 1 || listeners[0] != Handler(c.onException) {
		return false
	}

	c.exit = exitExiting
	c.process.RemoveListener(EventUncaughtException, c.onException)
	c.hooks.exception = false
	return true
}
