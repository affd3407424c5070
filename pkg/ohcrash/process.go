// process.go provides the default process-style host handle.

package ohcrash

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
)

// Process is an in-memory EventSource. Panics recovered by Guard and failures
// of goroutines started with Go are emitted to its listeners.
type Process struct {
	mu        sync.Mutex
	listeners map[string][]Handler
	exit      func(code int)
}

// DefaultProcess is the ambient process handle used when a client is not
// given one.
var DefaultProcess = NewProcess(os.Exit)

// NewProcess creates a Process that terminates through exit.
// A nil exit defaults to os.Exit.
func NewProcess(exit func(code int)) *Process {
	if exit == nil {
		exit = os.Exit
	}
	return &Process{
		listeners: make(map[string][]Handler),
		exit:      exit,
	}
}

// On appends h to the listeners of event. Adding the same handler twice
// registers it twice.
func (p *Process) On(event string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[event] = append(p.listeners[event], h)
}

// RemoveListener removes the most recently added registration of h.
// It is a no-op when h is not registered.
func (p *Process) RemoveListener(event string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.listeners[event]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == h {
			next := make([]Handler, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(p.listeners, event)
			} else {
				p.listeners[event] = next
			}
			return
		}
	}
}

// Listeners returns a copy of the listeners registered for event.
func (p *Process) Listeners(event string) []Handler {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.listeners[event]
	out := make([]Handler, len(list))
	copy(out, list)
	return out
}

// Exit terminates the process.
func (p *Process) Exit(code int) {
	p.exit(code)
}

// Emit delivers value to a snapshot of the listeners of event and reports
// whether any listener was called. Listeners run without the lock held, so
// they may add or remove listeners.
func (p *Process) Emit(event string, value any) bool {
	listeners := p.Listeners(event)
	for _, h := range listeners {
		h.HandleError(value)
	}
	return len(listeners) > 0
}

// Guard recovers a panic and emits it as an uncaught exception. If nobody
// listens, the panic continues.
//
// Use in defer:
//
//	func main() {
//	    defer ohcrash.DefaultProcess.Guard()
//	    run()
//	}
func (p *Process) Guard() {
	r := recover()
	if r == nil {
		return
	}
	err := NewPanicError(r, debug.Stack())
	if !p.Emit(EventUncaughtException, err) {
		panic(r)
	}
}

// Go runs fn on a new goroutine. A panic is emitted as an uncaught exception
// and a returned error as an unhandled rejection.
func (p *Process) Go(fn func() error) {
	go func() {
		defer p.Guard()
		if err := fn(); err != nil {
			if !p.Emit(EventUnhandledRejection, err) {
				fmt.Fprintf(os.Stderr, "unhandled rejection: %v\n", err)
			}
		}
	}()
}
