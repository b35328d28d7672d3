package config

import (
	"context"
	"log/slog"
	"time"
)

// Mode selects how a session communicates with its child process.
type Mode string

const (
	// ModePersistent keeps one child alive across many requests and reads
	// responses with the polling loop.
	ModePersistent Mode = "persistent"

	// ModeDisposable spawns a fresh child per request and communicates once
	// via a full write/close/drain exchange.
	ModeDisposable Mode = "disposable"
)

// Default budgets for the polling read loop and the retry policy.
const (
	// DefaultPollInterval is the sleep between empty non-blocking reads.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultRetryCount is the number of respawn-and-retry attempts on an
	// I/O failure per Execute call.
	DefaultRetryCount = 3

	// DefaultLineBuffer is the capacity of the reader goroutine's line queue.
	DefaultLineBuffer = 256

	// DefaultMaxLineBytes is the maximum length of a single output line.
	DefaultMaxLineBytes = 1024 * 1024 // 1MB
)

// StopCondition decides whether the response accumulated so far is complete.
// It is evaluated once before any read (allowing zero-line completion) and
// again after every line. It must be a pure function of the line slice.
type StopCondition func(lines []string) bool

// Options configures a session and the transaction engine driving it.
type Options struct {
	// Logger receives debug and operational messages.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ExecutablePath is the path to the engine binary. Required.
	ExecutablePath string

	// Args are extra command-line arguments for the engine.
	Args []string

	// Mode selects persistent or disposable communication.
	// Defaults to ModePersistent.
	Mode Mode

	// DisplayName identifies the engine in logs and error messages.
	// Defaults to the executable's base name.
	DisplayName string

	// MaxPollAttempts caps the number of empty poll attempts per transaction.
	// Zero means unbounded: the stop condition is trusted to become true.
	MaxPollAttempts int

	// PollInterval is the sleep between empty poll attempts.
	PollInterval time.Duration

	// RetryCount is the number of respawn-and-retry attempts on I/O failure.
	RetryCount int

	// LineBuffer is the capacity of the stdout line queue.
	LineBuffer int

	// MaxLineBytes bounds the length of a single output line.
	MaxLineBytes int

	// StartupReady is evaluated right after spawn to drain banner or version
	// text before the session is considered usable. If nil, no startup text
	// is expected and the session is usable immediately.
	StartupReady StopCondition

	// ResponseComplete decides when a persistent-mode response is complete.
	// If nil, a response is complete once at least one line has arrived.
	ResponseComplete StopCondition

	// PostProcess transforms the joined response text into a domain value.
	// A failure here is a ProtocolError; the session stays usable.
	PostProcess func(output string) (any, error)

	// StderrHandler receives the child's accumulated stderr text after every
	// transaction. Diagnostic only; it never affects control flow.
	StderrHandler func(text string)
}

// Normalize fills in defaults for unset fields.
func (o *Options) Normalize() {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	if o.Mode == "" {
		o.Mode = ModePersistent
	}

	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}

	if o.LineBuffer <= 0 {
		o.LineBuffer = DefaultLineBuffer
	}

	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}

	if o.ResponseComplete == nil {
		o.ResponseComplete = func(lines []string) bool { return len(lines) > 0 }
	}
}

// Session is the contract the transaction engine drives. The default
// implementation spawns a child process; tests inject fakes.
//
// Defined here rather than in the session package so the engine can depend
// on it without an import cycle. Aliased at the repository root.
type Session interface {
	// Spawn launches the child, terminating any previous one first.
	// Safe to call for both first start and respawn.
	Spawn(ctx context.Context) error

	// IsAlive reports whether the input stream is still writable.
	IsAlive() bool

	// WriteRequest writes and flushes request text to the child's stdin.
	WriteRequest(text string) error

	// ReadUntil runs the polling read loop until stop is satisfied, the poll
	// budget is exhausted, or the stream breaks.
	ReadUntil(ctx context.Context, stop StopCondition) ([]string, error)

	// Exchange performs a disposable-mode single exchange: write, close
	// stdin, block until exit, return all stdout and stderr.
	Exchange(ctx context.Context, text string) (stdout, stderr string, err error)

	// TakeStderr returns and clears the stderr accumulated since the last call.
	TakeStderr() string

	// ID identifies the current child instance; changes on every spawn.
	ID() string

	// DisplayName identifies the engine for diagnostics.
	DisplayName() string

	// Terminate kills the child, best effort.
	Terminate() error
}
