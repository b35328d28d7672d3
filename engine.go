package srlkit

import (
	"context"
	"fmt"

	"github.com/semlab/srlkit-go/internal/config"
	"github.com/semlab/srlkit-go/internal/engine"
	"github.com/semlab/srlkit-go/internal/session"
)

// Session is the child-process contract the transaction engine drives.
// The default implementation spawns a subprocess; tests may inject fakes.
type Session = config.Session

// Result is the outcome of one successful transaction.
type Result = engine.Result

// Engine executes request/response transactions against one external engine
// process. The child is spawned lazily on the first Execute and respawned
// transparently after I/O failures; the Engine value stays valid across
// respawns.
//
// An Engine is not safe for concurrent Execute calls: one outstanding
// request at a time, by design. Callers needing concurrency use one Engine
// per caller.
type Engine struct {
	opts    *config.Options
	session *session.Session
	exec    *engine.Engine
	closed  bool
}

// New creates an Engine for an external engine binary.
// WithExecutable is required; everything else has defaults.
func New(opts ...Option) (*Engine, error) {
	options := applyOptions(opts)

	if options.ExecutablePath == "" {
		return nil, fmt.Errorf("srlkit: executable path is required")
	}

	return &Engine{
		opts:    options,
		session: session.New(options),
		exec:    engine.New(options),
	}, nil
}

// Execute runs one request/response exchange using the configured
// response-complete condition.
func (e *Engine) Execute(ctx context.Context, request string) (*Result, error) {
	return e.ExecuteWith(ctx, request, e.opts.ResponseComplete)
}

// ExecuteWith runs one exchange with an explicit stop condition, overriding
// the configured response-complete condition for this transaction only.
func (e *Engine) ExecuteWith(ctx context.Context, request string, stop StopCondition) (*Result, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}

	return e.exec.ExecuteWith(ctx, e.session, request, stop)
}

// Close terminates the child process, if any. The Engine cannot be reused.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}

	e.closed = true

	return e.session.Terminate()
}
