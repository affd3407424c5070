// Package config loads ohcrash client settings from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values in Load.
const (
	EnvEndpoint = "OHCRASH_ENDPOINT"
	EnvAPIKey   = "OHCRASH_API_KEY"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for files that are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("config: unknown format")

// File is the on-disk client configuration. Unset channel switches keep the
// client defaults.
type File struct {
	Endpoint        string        `toml:"endpoint" yaml:"endpoint"`
	APIKey          string        `toml:"api_key" yaml:"api_key"`
	RuntimeIdentity string        `toml:"runtime_identity" yaml:"runtime_identity"`
	Props           ohcrash.Props `toml:"props" yaml:"props"`

	UncaughtExceptions  *bool `toml:"uncaught_exceptions" yaml:"uncaught_exceptions"`
	UnhandledRejections *bool `toml:"unhandled_rejections" yaml:"unhandled_rejections"`
	WindowOnError       *bool `toml:"window_onerror" yaml:"window_onerror"`
	Exit                *bool `toml:"exit" yaml:"exit"`

	HTTP      HTTPConfig      `toml:"http" yaml:"http"`
	Scrubbing ScrubbingConfig `toml:"scrubbing" yaml:"scrubbing"`
}

// HTTPConfig configures the default HTTP transport.
type HTTPConfig struct {
	Timeout   Duration `toml:"timeout" yaml:"timeout"`
	UserAgent string   `toml:"user_agent" yaml:"user_agent"`

	// RateLimit is reports per second; zero disables limiting.
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit"`
	Burst     int     `toml:"burst" yaml:"burst"`
}

// ScrubbingConfig enables report scrubbing. Zero sizes keep the defaults.
type ScrubbingConfig struct {
	Enabled           bool     `toml:"enabled" yaml:"enabled"`
	SensitivePatterns []string `toml:"sensitive_patterns" yaml:"sensitive_patterns"`
	MaxMessageSize    int      `toml:"max_message_size" yaml:"max_message_size"`
	MaxStackTraceSize int      `toml:"max_stack_trace_size" yaml:"max_stack_trace_size"`
	MaxPropValueSize  int      `toml:"max_prop_value_size" yaml:"max_prop_value_size"`
	FailClosed        *bool    `toml:"fail_closed" yaml:"fail_closed"`
}

// Duration wraps time.Duration for text-based parsing ("10s", "500ms").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Load reads path, applies the OHCRASH_* environment overrides and validates
// the result.
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f, err := Parse(data, format)
	if err != nil {
		return nil, err
	}

	f.applyEnvOverrides()
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return f, nil
}

// Parse decodes data in the given format. It does not read the environment.
func Parse(data []byte, format Format) (*File, error) {
	f := &File{}
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		for _, key := range md.Undecoded() {
			// Nested prop values are free-form.
			if len(key) > 0 && key[0] == "props" {
				continue
			}
			return nil, fmt.Errorf("failed to parse config file: unknown key %q", key.String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return f, nil
}

func (f *File) applyEnvOverrides() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		f.Endpoint = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		f.APIKey = v
	}
}

// Validate reports the first invalid field as an *ohcrash.ConfigError.
func (f *File) Validate() error {
	switch {
	case f.HTTP.Timeout.Duration < 0:
		return &ohcrash.ConfigError{Field: "http.timeout", Err: errors.New("must not be negative")}
	case f.HTTP.RateLimit < 0:
		return &ohcrash.ConfigError{Field: "http.rate_limit", Err: errors.New("must not be negative")}
	case f.HTTP.Burst < 0:
		return &ohcrash.ConfigError{Field: "http.burst", Err: errors.New("must not be negative")}
	}
	return nil
}

// Options maps the file onto client options. The endpoint is not included;
// it is passed to ohcrash.New.
func (f *File) Options() []ohcrash.Option {
	var opts []ohcrash.Option

	if f.APIKey != "" {
		opts = append(opts, ohcrash.WithAPIKey(f.APIKey))
	}
	if f.RuntimeIdentity != "" {
		opts = append(opts, ohcrash.WithRuntimeIdentity(f.RuntimeIdentity))
	}
	if len(f.Props) > 0 {
		opts = append(opts, ohcrash.WithGlobalProps(f.Props))
	}

	if f.UncaughtExceptions != nil {
		opts = append(opts, ohcrash.WithUncaughtExceptions(*f.UncaughtExceptions))
	}
	if f.UnhandledRejections != nil {
		opts = append(opts, ohcrash.WithUnhandledRejections(*f.UnhandledRejections))
	}
	if f.WindowOnError != nil {
		opts = append(opts, ohcrash.WithWindowOnError(*f.WindowOnError))
	}
	if f.Exit != nil {
		opts = append(opts, ohcrash.WithExit(*f.Exit))
	}

	if httpOpts := f.HTTP.options(); len(httpOpts) > 0 {
		opts = append(opts, ohcrash.WithHTTPOptions(httpOpts...))
	}
	if f.Scrubbing.Enabled {
		opts = append(opts, ohcrash.WithScrubber(f.Scrubbing.scrubberConfig()))
	}
	return opts
}

func (h HTTPConfig) options() []ohcrash.HTTPOption {
	var opts []ohcrash.HTTPOption
	if h.Timeout.Duration > 0 {
		opts = append(opts, ohcrash.WithTimeout(h.Timeout.Duration))
	}
	if h.UserAgent != "" {
		opts = append(opts, ohcrash.WithUserAgent(h.UserAgent))
	}
	if h.RateLimit > 0 {
		burst := h.Burst
		if burst == 0 {
			burst = 1
		}
		opts = append(opts, ohcrash.WithRateLimit(rate.Limit(h.RateLimit), burst))
	}
	return opts
}

func (s ScrubbingConfig) scrubberConfig() ohcrash.ScrubberConfig {
	cfg := ohcrash.DefaultScrubberConfig()
	cfg.SensitivePatterns = s.SensitivePatterns
	if s.MaxMessageSize > 0 {
		cfg.MaxMessageSize = s.MaxMessageSize
	}
	if s.MaxStackTraceSize > 0 {
		cfg.MaxStackTraceSize = s.MaxStackTraceSize
	}
	if s.MaxPropValueSize > 0 {
		cfg.MaxPropValueSize = s.MaxPropValueSize
	}
	if s.FailClosed != nil {
		cfg.FailClosed = *s.FailClosed
	}
	return cfg
}

// NewClient builds a client from the file. extra options are applied after
// the file's. Without an endpoint the client is built from the API key
// against the hosted endpoint.
func (f *File) NewClient(extra ...ohcrash.Option) (*ohcrash.Client, error) {
	opts := append(f.Options(), extra...)
	if f.Endpoint == "" && f.APIKey != "" {
		return ohcrash.FromAPIKey(f.APIKey, opts...)
	}
	return ohcrash.New(f.Endpoint, opts...)
}
