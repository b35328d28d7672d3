package srlkit

import "github.com/semlab/srlkit-go/internal/errors"

// DriverError is the base interface implemented by all driver errors.
type DriverError = errors.DriverError

// Error types surfaced by Execute. See the package documentation for the
// taxonomy and the internal/errors package for details.
type (
	// SpawnError indicates the engine executable could not be launched.
	SpawnError = errors.SpawnError

	// IOError indicates the respawn-and-retry budget was exhausted.
	IOError = errors.IOError

	// PollTimeoutError indicates the stop condition never became true
	// within the poll budget.
	PollTimeoutError = errors.PollTimeoutError

	// ProcessError indicates a disposable-mode child exited with a failure.
	ProcessError = errors.ProcessError

	// ProtocolError indicates the output post-processor rejected the
	// response. The session remains usable.
	ProtocolError = errors.ProtocolError
)

// Sentinel errors.
var (
	// ErrSessionNotStarted indicates a read or write before Spawn.
	ErrSessionNotStarted = errors.ErrSessionNotStarted

	// ErrStdinClosed indicates the child's input stream has been closed.
	ErrStdinClosed = errors.ErrStdinClosed

	// ErrEngineClosed indicates the engine has been closed.
	ErrEngineClosed = errors.ErrEngineClosed
)
