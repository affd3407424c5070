// scrubber.go implements fail-closed sensitive data redaction for reports.

package ohcrash

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ScrubberConfig controls scrubbing behavior.
type ScrubberConfig struct {
	// SensitivePatterns contains additional regex patterns for sensitive prop keys.
	SensitivePatterns []string

	// MaxMessageSize is the maximum length for error messages (default: 4096).
	MaxMessageSize int

	// MaxStackTraceSize is the maximum length for stack traces (default: 32768).
	MaxStackTraceSize int

	// MaxPropValueSize is the maximum length of a single string prop value (default: 1024).
	MaxPropValueSize int

	// ScrubMessages enables scrubbing of messages and string props for secrets/PII (default: true).
	ScrubMessages bool

	// FailClosed enables fail-closed behavior: on any scrub error, fully redact (default: true).
	FailClosed bool
}

// DefaultScrubberConfig returns production-safe defaults.
func DefaultScrubberConfig() ScrubberConfig {
	return ScrubberConfig{
		MaxMessageSize:    4096,
		MaxStackTraceSize: 32768,
		MaxPropValueSize:  1024,
		ScrubMessages:     true,
		FailClosed:        true,
	}
}

// Compiled regex patterns for message scrubbing (compiled once at package init)
var messageScrubPatterns = []*regexp.Regexp{
	// API keys and tokens
	regexp.MustCompile(`(?i)(api[_-]?key|token)[=:\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)(authorization|bearer)[=:\s]+['"]?[\w\-\.]+['"]?[\s]+['"]?[\w\-\.]+['"]?`), // Authorization: Bearer <token>
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_-]{20,}`),          // OpenAI-style keys (including sk-proj-)
	regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`),            // GitHub tokens
	regexp.MustCompile(`(?i)gho_[a-zA-Z0-9]{36}`),            // GitHub OAuth tokens
	regexp.MustCompile(`(?i)github_pat_[a-zA-Z0-9_]{22,}`),   // GitHub PAT
	regexp.MustCompile(`(?i)xox[baprs]-[a-zA-Z0-9\-]{10,}`),  // Slack tokens
	regexp.MustCompile(`(?i)eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), // JWT tokens

	// Credentials
	regexp.MustCompile(`(?i)password[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)secret[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)passwd[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)credential[=:\s]+['"]?[^\s'"",]+['"]?`),

	// PII
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), // Email
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                                 // SSN
	regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),           // Credit card
}

// Sensitive prop key patterns (case-insensitive substring match)
var sensitiveKeyPatterns = []string{
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"auth",
	"passwd",
}

// Path patterns to normalize in stack traces
var pathNormalizationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/home/[^/]+/`),
	regexp.MustCompile(`/Users/[^/]+/`),
	regexp.MustCompile(`C:\\Users\\[^\\]+\\`),
	regexp.MustCompile(`/tmp/[^/]+/`),
}

var stackAddrPattern = regexp.MustCompile(`0x[0-9a-fA-F]+`)

const (
	redacted         = "[REDACTED]"
	redactedScrubErr = "[REDACTED:SCRUB_ERROR]"
	truncationMarker = "...[TRUNCATED]"
)

// Scrubber redacts sensitive data from reports.
type Scrubber struct {
	cfg       ScrubberConfig
	extraKeys []*regexp.Regexp
}

// NewScrubber creates a new scrubber with the given configuration.
// Invalid SensitivePatterns are ignored.
func NewScrubber(cfg ScrubberConfig) *Scrubber {
	s := &Scrubber{cfg: cfg}
	for _, p := range cfg.SensitivePatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		s.extraKeys = append(s.extraKeys, re)
	}
	return s
}

// ScrubMessage scrubs sensitive patterns from an error message.
func (s *Scrubber) ScrubMessage(msg string) string {
	if !s.cfg.ScrubMessages {
		return msg
	}

	if s.cfg.MaxMessageSize > 0 && len(msg) > s.cfg.MaxMessageSize {
		msg = truncateWithMarker(msg, s.cfg.MaxMessageSize)
	}

	result := msg
	for _, pattern := range messageScrubPatterns {
		result = pattern.ReplaceAllString(result, redacted)
	}

	return result
}

// ScrubStackTrace normalizes paths and limits stack trace size.
func (s *Scrubber) ScrubStackTrace(trace string) string {
	if trace == "" {
		return trace
	}

	result := trace
	for _, pattern := range pathNormalizationPatterns {
		result = pattern.ReplaceAllString(result, "/[PATH]/")
	}

	result = stackAddrPattern.ReplaceAllString(result, "0x...")

	if s.cfg.MaxStackTraceSize > 0 && len(result) > s.cfg.MaxStackTraceSize {
		result = truncateWithMarker(result, s.cfg.MaxStackTraceSize)
	}

	return result
}

// ScrubProps redacts values under sensitive keys and scrubs string values
// recursively. Keys are always preserved. Values that cannot be encoded as
// JSON are fully redacted when FailClosed is set.
func (s *Scrubber) ScrubProps(props Props) Props {
	if props == nil {
		return Props{}
	}

	result := make(Props, len(props))
	for key, value := range props {
		if s.isSensitiveKey(key) {
			result[key] = redacted
			continue
		}

		generic, err := toGeneric(value)
		if err != nil {
			if s.cfg.FailClosed {
				result[key] = redactedScrubErr
			} else {
				result[key] = value
			}
			continue
		}
		result[key] = s.scrubJSONValue(generic)
	}
	return result
}

// ScrubJSON recursively scrubs sensitive data from a JSON string.
// Returns scrubbed JSON or "[REDACTED:SCRUB_ERROR]" on any error (fail-closed).
func (s *Scrubber) ScrubJSON(jsonStr string) string {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		if s.cfg.FailClosed {
			return redactedScrubErr
		}
		return jsonStr
	}

	result, err := json.Marshal(s.scrubJSONValue(data))
	if err != nil {
		if s.cfg.FailClosed {
			return redactedScrubErr
		}
		return jsonStr
	}
	return string(result)
}

// toGeneric converts a value into its JSON-decoded generic form.
func toGeneric(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// scrubJSONValue recursively scrubs a JSON value (map, array, or primitive).
func (s *Scrubber) scrubJSONValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return s.scrubJSONMap(v)
	case []any:
		return s.scrubJSONArray(v)
	case string:
		if s.cfg.MaxPropValueSize > 0 && len(v) > s.cfg.MaxPropValueSize {
			v = truncateWithMarker(v, s.cfg.MaxPropValueSize)
		}
		return s.ScrubMessage(v)
	default:
		return v // Numbers, booleans, null pass through
	}
}

func (s *Scrubber) scrubJSONMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for key, value := range m {
		if s.isSensitiveKey(key) {
			result[key] = redacted
		} else {
			result[key] = s.scrubJSONValue(value)
		}
	}
	return result
}

func (s *Scrubber) scrubJSONArray(arr []any) []any {
	result := make([]any, len(arr))
	for i, value := range arr {
		result[i] = s.scrubJSONValue(value)
	}
	return result
}

// isSensitiveKey checks if a prop key matches sensitive patterns.
func (s *Scrubber) isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	for _, re := range s.extraKeys {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// truncateWithMarker truncates a string and adds a truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= len(truncationMarker) {
		return truncationMarker[:maxLen]
	}
	cut := maxLen - len(truncationMarker)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}
