// options.go defines the functional options accepted by New and FromAPIKey.

package ohcrash

import "runtime"

// DefaultEndpoint is the collection endpoint used by FromAPIKey.
const DefaultEndpoint = "https://api.ohcrash.com/v1"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	endpoint        string
	apiKey          string
	exceptions      bool
	rejections      bool
	windowOnError   bool
	exit            bool
	autoEnable      bool
	process         EventSource
	window          ErrorSlot
	logger          Logger
	globalProps     Props
	runtimeIdentity string
	transport       Transport
	httpOptions     []HTTPOption
	scrubber        *Scrubber
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		exceptions:      true,
		rejections:      true,
		windowOnError:   true,
		exit:            true,
		autoEnable:      true,
		runtimeIdentity: runtime.Version(),
	}
}

// WithAPIKey sends "Authorization: Bearer <key>" with every report.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.apiKey = key
	}
}

// WithEndpoint overrides the endpoint. Only meaningful for FromAPIKey.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithUncaughtExceptions toggles the uncaught-exception channel.
func WithUncaughtExceptions(enabled bool) Option {
	return func(c *clientConfig) {
		c.exceptions = enabled
	}
}

// WithUnhandledRejections toggles the unhandled-rejection channel.
func WithUnhandledRejections(enabled bool) Option {
	return func(c *clientConfig) {
		c.rejections = enabled
	}
}

// WithWindowOnError toggles the global error callback channel.
func WithWindowOnError(enabled bool) Option {
	return func(c *clientConfig) {
		c.windowOnError = enabled
	}
}

// WithExit controls whether a fatal error terminates the process once reported.
func WithExit(enabled bool) Option {
	return func(c *clientConfig) {
		c.exit = enabled
	}
}

// WithProcess sets the process-style host. Defaults to DefaultProcess.
func WithProcess(p EventSource) Option {
	return func(c *clientConfig) {
		c.process = p
	}
}

// WithWindow selects the window family and the slot to hook.
func WithWindow(w ErrorSlot) Option {
	return func(c *clientConfig) {
		c.window = w
	}
}

// WithLogger sets the capture-time logger.
func WithLogger(l Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithGlobalProps sets props merged into every report. The map is copied.
func WithGlobalProps(props Props) Option {
	return func(c *clientConfig) {
		c.globalProps = cloneProps(props)
	}
}

// WithRuntimeIdentity overrides the "runtime" prop.
func WithRuntimeIdentity(identity string) Option {
	return func(c *clientConfig) {
		c.runtimeIdentity = identity
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithHTTPOptions configures the default HTTP transport.
func WithHTTPOptions(opts ...HTTPOption) Option {
	return func(c *clientConfig) {
		c.httpOptions = append(c.httpOptions, opts...)
	}
}

// WithScrubber enables scrubbing with a custom configuration.
func WithScrubber(cfg ScrubberConfig) Option {
	return func(c *clientConfig) {
		c.scrubber = NewScrubber(cfg)
	}
}

// WithDefaultScrubbing enables scrubbing with production-safe defaults.
func WithDefaultScrubbing() Option {
	return func(c *clientConfig) {
		c.scrubber = NewScrubber(DefaultScrubberConfig())
	}
}

// WithoutAutoEnable leaves the client disabled after construction.
func WithoutAutoEnable() Option {
	return func(c *clientConfig) {
		c.autoEnable = false
	}
}

func cloneProps(p Props) Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
