package srlkit

import (
	"log/slog"
	"time"

	"github.com/semlab/srlkit-go/internal/config"
)

// Mode selects how an engine communicates with its child process.
type Mode = config.Mode

const (
	// ModePersistent keeps one child alive across many requests and reads
	// responses with the polling loop.
	ModePersistent = config.ModePersistent

	// ModeDisposable spawns a fresh child per request and communicates once
	// via a full write/close/drain exchange.
	ModeDisposable = config.ModeDisposable
)

// Option configures an Engine using the functional options pattern.
type Option func(*config.Options)

// applyOptions applies functional options over the defaults.
func applyOptions(opts []Option) *config.Options {
	options := &config.Options{RetryCount: config.DefaultRetryCount}
	for _, opt := range opts {
		opt(options)
	}

	options.Normalize()

	return options
}

// WithExecutable sets the path to the engine binary. Required.
func WithExecutable(path string) Option {
	return func(o *config.Options) {
		o.ExecutablePath = path
	}
}

// WithArgs sets extra command-line arguments for the engine.
func WithArgs(args ...string) Option {
	return func(o *config.Options) {
		o.Args = args
	}
}

// WithMode selects persistent or disposable communication.
// The default is ModePersistent.
func WithMode(mode Mode) Option {
	return func(o *config.Options) {
		o.Mode = mode
	}
}

// WithDisplayName identifies the engine in logs and error messages.
// Defaults to the executable's base name.
func WithDisplayName(name string) Option {
	return func(o *config.Options) {
		o.DisplayName = name
	}
}

// WithLogger sets the logger for operational output.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *config.Options) {
		o.Logger = logger
	}
}

// WithMaxPollAttempts caps the number of empty poll attempts per transaction.
// Zero (the default) leaves the loop unbounded: the stop condition is then
// trusted to eventually become true.
func WithMaxPollAttempts(n int) Option {
	return func(o *config.Options) {
		o.MaxPollAttempts = n
	}
}

// WithPollInterval sets the sleep between empty poll attempts.
// The default is 100ms.
func WithPollInterval(d time.Duration) Option {
	return func(o *config.Options) {
		o.PollInterval = d
	}
}

// WithRetryCount sets the number of respawn-and-retry attempts on I/O
// failure per Execute call. The default is 3; zero disables retries.
func WithRetryCount(n int) Option {
	return func(o *config.Options) {
		o.RetryCount = n
	}
}

// WithStartupReady sets the stop condition that drains banner or version
// text right after spawn, before the session is considered usable.
// If not set, no startup text is expected.
func WithStartupReady(stop StopCondition) Option {
	return func(o *config.Options) {
		o.StartupReady = stop
	}
}

// WithResponseComplete sets the default response-complete condition used by
// Execute. If not set, a response is complete once at least one line arrives.
func WithResponseComplete(stop StopCondition) Option {
	return func(o *config.Options) {
		o.ResponseComplete = stop
	}
}

// WithPostProcessor sets the hook that transforms the joined response text
// into a domain value, available as Result.Value. A failure here surfaces as
// a ProtocolError and leaves the session usable.
func WithPostProcessor(fn func(output string) (any, error)) Option {
	return func(o *config.Options) {
		o.PostProcess = fn
	}
}

// WithStderrHandler sets the hook that receives the child's accumulated
// stderr text after every transaction. Diagnostic only; it never affects
// control flow.
func WithStderrHandler(fn func(text string)) Option {
	return func(o *config.Options) {
		o.StderrHandler = fn
	}
}
