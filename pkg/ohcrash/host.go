// host.go defines the host handles a Client attaches to.

package ohcrash

// Event names on a process-style EventSource.
const (
	EventUncaughtException  = "uncaughtException"
	EventUnhandledRejection = "unhandledRejection"
)

// Handler receives a value captured on an error channel.
// Handlers are compared by interface equality, so implementations must be
// comparable. Use pointer receivers.
type Handler interface {
	HandleError(value any)
}

// HandlerFunc adapts a function to Handler. Obtain one through NewHandler so
// it has a stable, comparable identity.
type HandlerFunc struct {
	fn func(value any)
}

// NewHandler wraps fn in a Handler with pointer identity.
func NewHandler(fn func(value any)) *HandlerFunc {
	return &HandlerFunc{fn: fn}
}

func (h *HandlerFunc) HandleError(value any) {
	if h.fn != nil {
		h.fn(value)
	}
}

// EventSource is a process-style host: per-event listener lists and a way to
// terminate the process.
type EventSource interface {
	On(event string, h Handler)
	RemoveListener(event string, h Handler)
	Listeners(event string) []Handler
	Exit(code int)
}

// ErrorSlot is a window-style host with a single global error callback.
type ErrorSlot interface {
	OnError() Handler
	SetOnError(h Handler)
}

// Logger is the console-like sink for capture-time output.
type Logger interface {
	Log(v ...any)
	Error(v ...any)
}

// Family is the runtime family a client attaches to.
type Family int

const (
	// FamilyProcess hooks uncaught exceptions and unhandled rejections.
	FamilyProcess Family = iota

	// FamilyWindow hooks the global error callback.
	FamilyWindow
)

func (f Family) String() string {
	switch f {
	case FamilyWindow:
		return "window"
	default:
		return "process"
	}
}

// DetectFamily selects the window family when a window slot is present.
func DetectFamily(window ErrorSlot) Family {
	if window != nil {
		return FamilyWindow
	}
	return FamilyProcess
}
