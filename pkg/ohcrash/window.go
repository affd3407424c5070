// window.go provides the default window-style host handle.

package ohcrash

import "sync"

// Window is an in-memory ErrorSlot holding one global error callback.
type Window struct {
	mu      sync.Mutex
	onError Handler
}

// NewWindow creates a Window with an empty slot.
func NewWindow() *Window {
	return &Window{}
}

func (w *Window) OnError() Handler {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.onError
}

func (w *Window) SetOnError(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = h
}

// Dispatch calls the installed callback with value and reports whether one
// was installed.
func (w *Window) Dispatch(value any) bool {
	h := w.OnError()
	if h == nil {
		return false
	}
	h.HandleError(value)
	return true
}
