// hooks.go installs and removes the client's handlers on the host.

package ohcrash

import "context"

// hookState records which capture points this client currently holds.
type hookState struct {
	exception bool
	rejection bool
	window    bool

	// displaced is the window callback found at Enable, possibly nil.
	// Restored on Disable.
	displaced Handler
}

// Enable registers the client's handlers on the host. Calling it again while
// enabled changes nothing.
func (c *Client) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.family {
	case FamilyWindow:
		if c.windowOnError && !c.hooks.window {
			c.hooks.displaced = c.window.OnError()
			c.window.SetOnError(c.onWindow)
			c.hooks.window = true
		}
	default:
		// An exiting client has already given up its exception listener.
		if c.exceptions && !c.hooks.exception && c.exit == exitListening {
			c.process.On(EventUncaughtException, c.onException)
			c.hooks.exception = true
		}
		if c.rejections && !c.hooks.rejection {
			c.process.On(EventUnhandledRejection, c.onRejection)
			c.hooks.rejection = true
		}
	}
}

// Disable removes every handler this client registered and restores the
// displaced window callback. Calling it without Enable, or twice, is a no-op.
func (c *Client) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hooks.exception {
		c.process.RemoveListener(EventUncaughtException, c.onException)
		c.hooks.exception = false
	}
	if c.hooks.rejection {
		c.process.RemoveListener(EventUnhandledRejection, c.onRejection)
		c.hooks.rejection = false
	}
	if c.hooks.window {
		c.window.SetOnError(c.hooks.displaced)
		c.hooks.displaced = nil
		c.hooks.window = false
	}
}

// Enabled reports whether any handler is registered.
func (c *Client) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hooks.exception || c.hooks.rejection || c.hooks.window
}

type rejectionHandler struct{ c *Client }

func (h *rejectionHandler) HandleError(value any) {
	err := asError(value)
	h.c.logCaptured(err)
	h.c.dispatch(context.Background(), err, ChannelRejection)
}

type windowHandler struct{ c *Client }

// HandleError logs, chains to the displaced callback, then reports. The
// report is dispatched even if the displaced callback panics.
func (h *windowHandler) HandleError(value any) {
	err := asError(value)
	h.c.logCaptured(err)

	h.c.mu.Lock()
	displaced := h.c.hooks.displaced
	h.c.mu.Unlock()

	defer h.c.dispatch(context.Background(), err, ChannelWindow)
	if displaced != nil {
		displaced.HandleError(value)
	}
}
