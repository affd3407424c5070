// Package stderr provides a transport that prints reports in human-readable
// format. Useful for development and debugging.
package stderr

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

// Option configures the stderr transport.
type Option func(*config)

type config struct {
	verbose bool
	out     io.Writer
}

// WithVerbose enables full report details including stack traces.
func WithVerbose() Option {
	return func(c *config) {
		c.verbose = true
	}
}

// WithWriter redirects output, mainly for tests.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

type transport struct {
	verbose bool

	mu  sync.Mutex
	out io.Writer
}

// New creates a transport that writes to stderr.
func New(opts ...Option) ohcrash.Transport {
	cfg := &config{out: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}
	return &transport{
		verbose: cfg.verbose,
		out:     cfg.out,
	}
}

// Send formats and outputs the report.
func (t *transport) Send(ctx context.Context, report ohcrash.Report) error {
	// Format: [OHCRASH] <timestamp> <CHANNEL> <name>: <message>
	timestamp := report.Timestamp.Format("2006-01-02T15:04:05Z07:00")
	channel := strings.ToUpper(string(report.Channel))
	if channel == "" {
		channel = "SEND"
	}

	name := report.Name
	if name == "" {
		name = "error"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[OHCRASH] %s %s %s: %s\n", timestamp, channel, name, report.Message)

	if report.Fingerprint != "" {
		fmt.Fprintf(&b, "        Fingerprint: %s\n", report.Fingerprint)
	}
	if report.ContextID != nil {
		fmt.Fprintf(&b, "        Context: %d\n", *report.ContextID)
	}
	if len(report.Props) > 0 {
		fmt.Fprintf(&b, "        Props: %s\n", formatProps(report.Props))
	}

	if t.verbose && report.Stack != "" {
		b.WriteString("        Stack trace:\n")
		for _, line := range strings.Split(report.Stack, "\n") {
			fmt.Fprintf(&b, "          %s\n", line)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := io.WriteString(t.out, b.String())
	return err
}

// formatProps renders props as sorted key=value pairs.
func formatProps(props ohcrash.Props) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, props[k])
	}
	return strings.Join(pairs, " ")
}

// Flush is a no-op for the stderr transport.
func (t *transport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for the stderr transport.
func (t *transport) Close() error {
	return nil
}
