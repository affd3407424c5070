// logger.go provides Logger implementations.

package ohcrash

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

type consoleLogger struct {
	out *log.Logger
	err *log.Logger
}

// NewConsoleLogger returns a Logger writing Log output to out and Error output
// to errOut. Nil writers default to stdout and stderr.
func NewConsoleLogger(out, errOut io.Writer) Logger {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &consoleLogger{
		out: log.New(out, "", 0),
		err: log.New(errOut, "", 0),
	}
}

func (l *consoleLogger) Log(v ...any)   { l.out.Println(v...) }
func (l *consoleLogger) Error(v ...any) { l.err.Println(v...) }

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts a structured logger. Log maps to Info and Error to Error.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

func (l *slogLogger) Log(v ...any) {
	l.logger.Info(sprintln(v...), "component", "ohcrash")
}

func (l *slogLogger) Error(v ...any) {
	l.logger.Error(sprintln(v...), "component", "ohcrash")
}

// sprintln formats like Println without the trailing newline.
func sprintln(v ...any) string {
	return strings.TrimSuffix(fmt.Sprintln(v...), "\n")
}
