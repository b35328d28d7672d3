// Package errors defines the driver's error taxonomy.
//
// Spawn failures are fatal and surface immediately. Broken pipes are
// recovered by respawn-and-retry and surface as IOError only once retries
// are exhausted. Poll timeouts are a distinct, recoverable failure so
// callers can tell "child returned nothing" from "child never answered".
package errors

import (
	"errors"
	"fmt"
	"time"
)

// DriverError is the base interface for all driver errors.
type DriverError interface {
	error
	IsDriverError() bool
}

// Compile-time verification that all error types implement DriverError.
var (
	_ DriverError = (*SpawnError)(nil)
	_ DriverError = (*PipeError)(nil)
	_ DriverError = (*IOError)(nil)
	_ DriverError = (*PollTimeoutError)(nil)
	_ DriverError = (*ProcessError)(nil)
	_ DriverError = (*ProtocolError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrSessionNotStarted indicates a read or write before Spawn.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrStdinClosed indicates the child's input stream has been closed.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrEngineClosed indicates the engine has been closed and cannot be reused.
	ErrEngineClosed = errors.New("engine closed")
)

// SpawnError indicates the engine executable could not be launched.
// Fatal: never retried by the driver.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// IsDriverError implements DriverError.
func (e *SpawnError) IsDriverError() bool { return true }

// PipeError indicates a broken pipe or read failure mid-transaction.
// The engine recovers from it by respawning the child and replaying the
// request; callers only ever see it wrapped inside an IOError.
type PipeError struct {
	Err error
}

func (e *PipeError) Error() string {
	return fmt.Sprintf("pipe failure: %v", e.Err)
}

func (e *PipeError) Unwrap() error { return e.Err }

// IsDriverError implements DriverError.
func (e *PipeError) IsDriverError() bool { return true }

// IOError indicates the respawn-and-retry budget was exhausted by
// persistent I/O failures. Attempts counts every attempt, retries included.
type IOError struct {
	Attempts int
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("transaction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsDriverError implements DriverError.
func (e *IOError) IsDriverError() bool { return true }

// PollTimeoutError indicates the stop condition never became true within the
// poll budget. Lines holds whatever arrived before the budget ran out.
type PollTimeoutError struct {
	Attempts int
	Interval time.Duration
	Lines    []string
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("response incomplete after %d poll attempts (%v interval, %d lines received)",
		e.Attempts, e.Interval, len(e.Lines))
}

// IsDriverError implements DriverError.
func (e *PollTimeoutError) IsDriverError() bool { return true }

// ProcessError indicates a disposable-mode child exited with a failure.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("engine process failed (exit %d): %s", e.ExitCode, e.Stderr)
	}

	return fmt.Sprintf("engine process failed (exit %d): %v", e.ExitCode, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// IsDriverError implements DriverError.
func (e *ProcessError) IsDriverError() bool { return true }

// ProtocolError indicates the child answered but the output post-processor
// could not parse the response. The session remains usable.
type ProtocolError struct {
	Output string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unparseable engine output: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsDriverError implements DriverError.
func (e *ProtocolError) IsDriverError() bool { return true }
