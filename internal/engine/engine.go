// Package engine executes request/response transactions against a live
// session with bounded polling and automatic respawn-and-retry recovery.
package engine

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/semlab/srlkit-go/internal/config"
	"github.com/semlab/srlkit-go/internal/errors"
	"github.com/semlab/srlkit-go/internal/metrics"
)

// Result is the outcome of one successful transaction.
type Result struct {
	// Lines are the response lines in arrival order.
	Lines []string

	// Output is the response text (lines joined with newlines).
	Output string

	// Value is the post-processor's product, if a post-processor is set.
	Value any

	// Stderr is the diagnostic text the child printed during the transaction.
	Stderr string

	// Attempts counts how many times the request was issued, retries included.
	Attempts int

	// SessionID identifies the child instance that answered.
	SessionID string
}

// Engine orchestrates transactions. It holds no per-request state; a
// transaction exists only for the duration of one Execute call.
//
// Engine provides no internal locking: a single Execute at a time per
// session. Callers needing concurrency use one session per caller.
type Engine struct {
	log  *slog.Logger
	opts *config.Options
}

// New creates a transaction engine for the given options.
func New(opts *config.Options) *Engine {
	opts.Normalize()

	return &Engine{
		log:  opts.Logger.With("component", "engine"),
		opts: opts,
	}
}

// Execute runs one request/response exchange against the session, spawning
// it first if needed and using the configured response-complete condition.
func (e *Engine) Execute(ctx context.Context, s config.Session, request string) (*Result, error) {
	return e.ExecuteWith(ctx, s, request, e.opts.ResponseComplete)
}

// ExecuteWith runs one exchange with an explicit stop condition.
//
// On a broken pipe mid-transaction the session is respawned and the same
// request replayed, up to RetryCount times: RetryCount+1 attempts total,
// then the failure surfaces as an IOError. Poll timeouts are not retried;
// they surface immediately as PollTimeoutError so callers can distinguish
// "child returned nothing" from "child never answered".
func (e *Engine) ExecuteWith(ctx context.Context, s config.Session, request string, stop config.StopCondition) (*Result, error) {
	tries := e.opts.RetryCount
	attempt := 0

	for {
		attempt++

		if !s.IsAlive() {
			if err := s.Spawn(ctx); err != nil {
				// Spawn failures are fatal, never retried.
				return nil, err
			}

			metrics.Respawns.WithLabelValues(s.DisplayName()).Inc()
		}

		res, err := e.attempt(ctx, s, request, stop)
		if err == nil {
			res.Attempts = attempt
			res.SessionID = s.ID()

			return e.finish(s, res)
		}

		if _, broken := stderrors.AsType[*errors.PipeError](err); broken && tries > 0 {
			tries--

			// The failed attempt's diagnostics would vanish with the respawned
			// child; deliver them before the old buffer is discarded.
			e.routeStderr(s, err)

			e.log.Info("transaction failed mid-flight, respawning",
				"engine", s.DisplayName(), "attempt", attempt, "error", err)
			metrics.Retries.WithLabelValues(s.DisplayName()).Inc()

			if spawnErr := s.Spawn(ctx); spawnErr != nil {
				return nil, spawnErr
			}

			metrics.Respawns.WithLabelValues(s.DisplayName()).Inc()

			continue
		}

		return nil, e.fail(s, err, attempt)
	}
}

// attempt issues the request once, in the session's configured mode.
func (e *Engine) attempt(ctx context.Context, s config.Session, request string, stop config.StopCondition) (*Result, error) {
	if e.opts.Mode == config.ModeDisposable {
		out, stderrText, err := s.Exchange(ctx, request)
		if err != nil {
			return nil, err
		}

		res := &Result{Output: out, Stderr: stderrText}
		if out != "" {
			res.Lines = strings.Split(out, "\n")
		}

		return res, nil
	}

	if err := s.WriteRequest(request); err != nil {
		return nil, err
	}

	lines, err := s.ReadUntil(ctx, stop)
	if err != nil {
		return nil, err
	}

	return &Result{
		Lines:  lines,
		Output: strings.Join(lines, "\n"),
		Stderr: s.TakeStderr(),
	}, nil
}

// finish routes stderr through the diagnostic hook and runs the output
// post-processor. A post-processing failure leaves the session Ready.
func (e *Engine) finish(s config.Session, res *Result) (*Result, error) {
	if e.opts.StderrHandler != nil {
		e.opts.StderrHandler(res.Stderr)
	}

	if e.opts.PostProcess != nil {
		value, err := e.opts.PostProcess(res.Output)
		if err != nil {
			metrics.Transactions.WithLabelValues(
				s.DisplayName(), string(e.opts.Mode), metrics.OutcomeProtocol).Inc()

			return nil, &errors.ProtocolError{Output: res.Output, Err: err}
		}

		res.Value = value
	}

	metrics.Transactions.WithLabelValues(
		s.DisplayName(), string(e.opts.Mode), metrics.OutcomeOK).Inc()
	e.log.Debug("transaction complete",
		"engine", s.DisplayName(), "lines", len(res.Lines), "attempts", res.Attempts)

	return res, nil
}

// routeStderr delivers the transaction's diagnostic text to the stderr
// hook. Disposable exchanges drain their buffer before returning, so a
// child-failure error carries the text instead.
func (e *Engine) routeStderr(s config.Session, err error) {
	if e.opts.StderrHandler == nil {
		return
	}

	text := s.TakeStderr()

	if text == "" {
		if procErr, ok := stderrors.AsType[*errors.ProcessError](err); ok {
			text = procErr.Stderr
		}
	}

	e.opts.StderrHandler(text)
}

// fail records the terminal outcome and wraps exhausted-retry pipe failures.
// Stderr is routed through the hook on failure too: diagnostics reach the
// caller whatever the outcome.
func (e *Engine) fail(s config.Session, err error, attempts int) error {
	e.routeStderr(s, err)

	outcome := metrics.OutcomeIOError

	switch {
	case isType[*errors.PollTimeoutError](err):
		outcome = metrics.OutcomeTimeout

		metrics.PollTimeouts.WithLabelValues(s.DisplayName()).Inc()
	case isType[*errors.ProcessError](err):
		outcome = metrics.OutcomeProcess
	case isType[*errors.PipeError](err):
		err = &errors.IOError{Attempts: attempts, Err: err}
	}

	metrics.Transactions.WithLabelValues(s.DisplayName(), string(e.opts.Mode), outcome).Inc()
	e.log.Error("transaction failed",
		"engine", s.DisplayName(), "attempts", attempts, "error", err)

	return err
}

func isType[T error](err error) bool {
	_, ok := stderrors.AsType[T](err)

	return ok
}
