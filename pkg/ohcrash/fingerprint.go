// fingerprint.go generates stable hashes for grouping similar reports.

package ohcrash

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Fingerprint generates a hash for grouping similar reports.
// The fingerprint is based on:
//   - the error name
//   - the first 3 stack frames (function names only, normalized)
//   - the message, only when the stack yields no frames
//
// It ignores IDs, timestamps, props, line numbers and memory addresses.
func Fingerprint(report Report) string {
	parts := []string{report.Name}

	frames := normalizeStackTrace(report.Stack)
	if len(frames) == 0 {
		parts = append(parts, report.Message)
	}
	parts = append(parts, frames...)

	input := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(input))

	// Return hex-encoded first 16 bytes (32 hex chars)
	return hex.EncodeToString(hash[:16])
}

var (
	// Match function names like "main.doSomething" or "example.com/pkg-x/sub.Type.Method"
	funcNamePattern = regexp.MustCompile(`^([a-zA-Z0-9_./-]+\.[a-zA-Z0-9_]+)`)

	// Match memory addresses like "0x1234abcd"
	memAddrPattern = regexp.MustCompile(`0x[0-9a-fA-F]+`)

	// Match offset patterns like "+0x123"
	offsetPattern = regexp.MustCompile(`\+0x[0-9a-fA-F]+`)

	receiverCleaner = strings.NewReplacer("(*", "", "(", "", ")", "")
)

// normalizeStackTrace extracts the first 3 function names from a Go stack
// trace, skipping runtime frames and stripping addresses and arguments.
func normalizeStackTrace(trace string) []string {
	if trace == "" {
		return nil
	}

	var frames []string
	for _, raw := range strings.Split(trace, "\n") {
		// File path lines are indented with a tab
		if strings.HasPrefix(raw, "\t") {
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "goroutine ") || strings.HasPrefix(line, "/") {
			continue
		}

		line = offsetPattern.ReplaceAllString(line, "")
		line = memAddrPattern.ReplaceAllString(line, "")

		// Drop the argument list, then receiver punctuation
		if idx := strings.LastIndex(line, "("); idx > 0 {
			line = line[:idx]
		}
		line = receiverCleaner.Replace(strings.TrimSpace(line))

		if strings.HasPrefix(line, "runtime.") || strings.HasPrefix(line, "runtime/debug.") {
			continue
		}

		if match := funcNamePattern.FindString(line); match != "" {
			frames = append(frames, match)
			if len(frames) >= 3 {
				break
			}
		}
	}

	return frames
}
