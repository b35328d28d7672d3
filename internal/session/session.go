// Package session manages exactly one child-process identity: spawning,
// killing and respawning the engine executable, and reading its output.
//
// The child's stdout is consumed by a dedicated reader goroutine that blocks
// on real I/O and feeds a bounded line queue. A channel receive with a
// default case is the non-blocking read the polling loop builds on: an empty
// queue means "would block", a closed queue means the stream broke.
package session

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/semlab/srlkit-go/internal/config"
	"github.com/semlab/srlkit-go/internal/errors"
)

// maxStderrBytes caps the stderr buffer. Reading continues past the cap so
// the child never blocks on a full stderr pipe; the excess is dropped.
const maxStderrBytes = 1024 * 1024 // 1MB

// Session owns one child-process instance. At most one child is live at any
// time; killing the old child always precedes installing a new one.
//
// Sessions may be silently respawned many times without the caller's
// reference changing. One transaction at a time: callers needing concurrent
// requests must use one Session per caller.
type Session struct {
	log  *slog.Logger
	opts *config.Options
	name string

	mu    sync.Mutex
	child *child
}

// child bundles the per-spawn state so goroutines of a killed child never
// touch the fields of its replacement.
type child struct {
	id    string
	cmd   *exec.Cmd
	stdin io.WriteCloser

	mu          sync.Mutex
	stdinClosed bool

	lines     chan string
	readErrCh chan error

	exitErr error // written before exitCh closes
	exitCh  chan struct{}

	stderr *stderrBuffer
}

// Compile-time verification that Session implements the engine's contract.
var _ config.Session = (*Session)(nil)

// New creates a session for the configured engine. The child is not spawned
// until Spawn is called (typically by the transaction engine on first use).
func New(opts *config.Options) *Session {
	opts.Normalize()

	name := opts.DisplayName
	if name == "" {
		name = filepath.Base(opts.ExecutablePath)
	}

	return &Session{
		log:  opts.Logger.With("component", "session", "engine", name),
		opts: opts,
		name: name,
	}
}

// Spawn launches the engine executable with stdin/stdout/stderr pipes.
// If a previous child exists it is terminated first, which makes Spawn
// idempotent and safe for both first start and respawn. Startup text is
// drained with the startup-ready stop condition before Spawn returns.
//
// Spawn failures are fatal and are never retried by the session.
func (s *Session) Spawn(ctx context.Context) error {
	s.mu.Lock()
	old := s.child
	s.child = nil
	s.mu.Unlock()

	if old != nil {
		s.reap(old)
	}

	//nolint:gosec // G204: launching a configured engine binary is the point
	cmd := exec.Command(s.opts.ExecutablePath, s.opts.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.SpawnError{Path: s.opts.ExecutablePath, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.SpawnError{Path: s.opts.ExecutablePath, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return &errors.SpawnError{Path: s.opts.ExecutablePath, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return &errors.SpawnError{Path: s.opts.ExecutablePath, Err: err}
	}

	c := &child{
		id:        ulid.Make().String(),
		cmd:       cmd,
		stdin:     stdin,
		lines:     make(chan string, s.opts.LineBuffer),
		readErrCh: make(chan error, 1),
		exitCh:    make(chan struct{}),
		stderr:    &stderrBuffer{},
	}

	stderrDone := make(chan struct{})

	go func() {
		defer close(stderrDone)

		scanner := bufio.NewScanner(stderrPipe)
		for scanner.Scan() {
			c.stderr.append(scanner.Text())
		}
	}()

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), s.opts.MaxLineBytes)

		for scanner.Scan() {
			c.lines <- scanner.Text()
		}

		if err := scanner.Err(); err != nil {
			c.readErrCh <- err
		}

		close(c.lines)

		// Both pipes must be drained before Wait reaps the child.
		<-stderrDone

		c.exitErr = cmd.Wait()
		close(c.exitCh)
	}()

	s.mu.Lock()
	s.child = c
	s.mu.Unlock()

	s.log.Info("engine process started", "pid", cmd.Process.Pid, "session_id", c.id)

	if s.opts.StartupReady != nil {
		if _, err := s.ReadUntil(ctx, s.opts.StartupReady); err != nil {
			_ = s.Terminate()

			return fmt.Errorf("drain startup output: %w", err)
		}

		s.log.Debug("startup output drained", "session_id", c.id)
	}

	return nil
}

// IsAlive reports whether the input stream is still writable. A false result
// is the signal the transaction engine uses to respawn before a request.
func (s *Session) IsAlive() bool {
	c := s.current()
	if c == nil || c.inputClosed() {
		return false
	}

	select {
	case <-c.exitCh:
		return false
	default:
		return true
	}
}

// WriteRequest writes request text to the child's stdin. Pipes are
// unbuffered, so the write is the flush.
func (s *Session) WriteRequest(text string) error {
	c := s.current()
	if c == nil {
		return &errors.PipeError{Err: errors.ErrSessionNotStarted}
	}

	if c.inputClosed() {
		return &errors.PipeError{Err: errors.ErrStdinClosed}
	}

	s.log.Debug("request written", "session_id", c.id, "bytes", len(text))

	if _, err := io.WriteString(c.stdin, text); err != nil {
		return &errors.PipeError{Err: err}
	}

	return nil
}

// ReadUntil runs the polling read loop: evaluate stop once before reading so
// a zero-line response can complete, then alternate non-blocking reads with
// fixed-interval sleeps. A poll attempt is counted only when no data was
// available. With MaxPollAttempts = 0 the loop is unbounded and only a
// broken stream or ctx cancellation ends it.
func (s *Session) ReadUntil(ctx context.Context, stop config.StopCondition) ([]string, error) {
	c := s.current()
	if c == nil {
		return nil, &errors.PipeError{Err: errors.ErrSessionNotStarted}
	}

	lines := make([]string, 0, 8)
	if stop(lines) {
		return lines, nil
	}

	polls := 0

	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return lines, &errors.PipeError{Err: c.takeReadErr()}
			}

			lines = append(lines, line)

			if stop(lines) {
				return lines, nil
			}

		default:
			if s.opts.MaxPollAttempts > 0 && polls >= s.opts.MaxPollAttempts {
				s.log.Warn("poll budget exhausted",
					"session_id", c.id, "attempts", polls, "lines", len(lines))

				return lines, &errors.PollTimeoutError{
					Attempts: polls,
					Interval: s.opts.PollInterval,
					Lines:    lines,
				}
			}

			polls++

			select {
			case <-ctx.Done():
				return lines, ctx.Err()
			case <-time.After(s.opts.PollInterval):
			}
		}
	}
}

// Exchange performs the disposable-mode single exchange: write the request,
// close stdin, block until the child exits, and return everything it printed
// on stdout and stderr. There is no polling loop; the exchange is bounded
// only by the child's exit time and the caller's ctx.
func (s *Session) Exchange(ctx context.Context, text string) (string, string, error) {
	c := s.current()
	if c == nil {
		return "", "", &errors.PipeError{Err: errors.ErrSessionNotStarted}
	}

	if !c.inputClosed() {
		if text != "" {
			if _, err := io.WriteString(c.stdin, text); err != nil {
				return "", c.stderr.take(), &errors.PipeError{Err: err}
			}
		}

		c.closeInput()
	}

	var out strings.Builder

	var g errgroup.Group

	g.Go(func() error {
		for line := range c.lines {
			out.WriteString(line)
			out.WriteByte('\n')
		}

		return nil
	})

	select {
	case <-c.exitCh:
	case <-ctx.Done():
		_ = c.cmd.Process.Kill()
		<-c.exitCh
		_ = g.Wait()

		return "", c.stderr.take(), ctx.Err()
	}

	// The line queue closes before exitCh, so this cannot block.
	_ = g.Wait()

	stderrText := c.stderr.take()

	if c.exitErr != nil {
		exitCode := 0
		if exitErr, ok := stderrors.AsType[*exec.ExitError](c.exitErr); ok {
			exitCode = exitErr.ExitCode()
		}

		return strings.TrimSuffix(out.String(), "\n"), stderrText, &errors.ProcessError{
			ExitCode: exitCode,
			Stderr:   stderrText,
			Err:      c.exitErr,
		}
	}

	return strings.TrimSuffix(out.String(), "\n"), stderrText, nil
}

// TakeStderr returns and clears the stderr text accumulated since the last
// call, so each transaction reports only its own diagnostics.
func (s *Session) TakeStderr() string {
	c := s.current()
	if c == nil {
		return ""
	}

	return c.stderr.take()
}

// ID identifies the current child instance; it changes on every spawn.
func (s *Session) ID() string {
	c := s.current()
	if c == nil {
		return ""
	}

	return c.id
}

// Pid returns the current child's process ID, or 0 if none is live.
func (s *Session) Pid() int {
	c := s.current()
	if c == nil || c.cmd.Process == nil {
		return 0
	}

	return c.cmd.Process.Pid
}

// DisplayName identifies the engine for diagnostics.
func (s *Session) DisplayName() string { return s.name }

// Terminate kills the child, best effort. An already-gone process is not an
// error. The session can be revived later with Spawn.
func (s *Session) Terminate() error {
	s.mu.Lock()
	c := s.child
	s.child = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	s.log.Debug("terminating engine process", "session_id", c.id, "pid", c.cmd.Process.Pid)

	return s.reapErr(c)
}

// current returns the live child bundle, if any.
func (s *Session) current() *child {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.child
}

// reap kills and fully collects a child, discarding any output the OS had
// buffered for it. Acceptable because a retried request is fully replayed.
func (s *Session) reap(c *child) {
	if err := s.reapErr(c); err != nil {
		s.log.Debug("old engine process did not die cleanly", "session_id", c.id, "error", err)
	}
}

func (s *Session) reapErr(c *child) error {
	c.closeInput()

	killErr := c.cmd.Process.Kill()
	if killErr != nil && stderrors.Is(killErr, os.ErrProcessDone) {
		killErr = nil
	}

	// Unblock the reader if it is stuck on a full line queue, then wait for
	// the child to be reaped so no process handle leaks.
	go func() {
		for range c.lines { //nolint:revive // draining
		}
	}()

	<-c.exitCh

	return killErr
}

func (c *child) inputClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stdinClosed
}

func (c *child) closeInput() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stdinClosed {
		_ = c.stdin.Close()
		c.stdinClosed = true
	}
}

// takeReadErr reports why the line queue closed: the scanner's error, or
// io.EOF when the child simply closed its stdout.
func (c *child) takeReadErr() error {
	select {
	case err := <-c.readErrCh:
		return err
	default:
		return io.EOF
	}
}

// stderrBuffer accumulates stderr lines up to maxStderrBytes.
type stderrBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (sb *stderrBuffer) append(line string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.b.Len() >= maxStderrBytes {
		return
	}

	if sb.b.Len() > 0 {
		sb.b.WriteByte('\n')
	}

	sb.b.WriteString(line)
}

func (sb *stderrBuffer) take() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	text := sb.b.String()
	sb.b.Reset()

	return text
}
