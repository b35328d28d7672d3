// Package boxer adapts a Boxer-style semantic parser running as a
// persistent child process. The parser prints a banner at startup, then
// serves one sentence per request: the sentence goes in on stdin and the
// logical form comes back as Prolog terms on stdout.
package boxer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	srlkit "github.com/semlab/srlkit-go"
	"github.com/semlab/srlkit-go/lf"
)

// Parser converts sentences to logical forms via the external parser.
type Parser struct {
	log       *slog.Logger
	engine    *srlkit.Engine
	endMarker string
}

// Config assembles a Parser. Path is required.
type Config struct {
	// Path is the parser executable.
	Path string
	// Args are extra command-line arguments.
	Args []string
	// ReadyLine is the last banner line the parser prints at startup.
	// Empty means the parser prints no banner.
	ReadyLine string
	// EndMarker, when set, is the line the parser prints after each
	// logical form. Without it a response is a single term line.
	EndMarker string
	// RetryCount is the respawn-and-retry budget per sentence.
	RetryCount int
	// PollInterval is the sleep between empty response polls.
	PollInterval time.Duration
	// MaxPollAttempts caps empty polls per sentence; zero means unbounded.
	MaxPollAttempts int
	// Logger for operational output.
	Logger *slog.Logger
}

// New creates a Parser with its own persistent-mode engine. The child is
// spawned lazily on the first Parse.
func New(cfg Config) (*Parser, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("boxer: parser executable is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []srlkit.Option{
		srlkit.WithExecutable(cfg.Path),
		srlkit.WithArgs(cfg.Args...),
		srlkit.WithMode(srlkit.ModePersistent),
		srlkit.WithDisplayName("boxer"),
		srlkit.WithRetryCount(cfg.RetryCount),
		srlkit.WithPollInterval(cfg.PollInterval),
		srlkit.WithMaxPollAttempts(cfg.MaxPollAttempts),
		srlkit.WithLogger(logger),
	}

	if cfg.ReadyLine != "" {
		opts = append(opts, srlkit.WithStartupReady(srlkit.StopOnLine(cfg.ReadyLine)))
	}

	if cfg.EndMarker != "" {
		opts = append(opts, srlkit.WithResponseComplete(srlkit.StopOnLine(cfg.EndMarker)))
	}

	engine, err := srlkit.New(opts...)
	if err != nil {
		return nil, err
	}

	return &Parser{
		log:       logger.With("component", "boxer"),
		engine:    engine,
		endMarker: cfg.EndMarker,
	}, nil
}

// Close terminates the parser process.
func (p *Parser) Close() error {
	return p.engine.Close()
}

// Parse sends one sentence and returns its logical form. The sentence is
// normalized to a single line; the parser protocol is line-oriented.
func (p *Parser) Parse(ctx context.Context, sentence string) ([]*lf.Term, error) {
	request := strings.Join(strings.Fields(sentence), " ")
	if request == "" {
		return nil, fmt.Errorf("boxer: empty sentence")
	}

	res, err := p.engine.Execute(ctx, request+"\n")
	if err != nil {
		return nil, err
	}

	lines := res.Lines
	if p.endMarker != "" && len(lines) > 0 && lines[len(lines)-1] == p.endMarker {
		lines = lines[:len(lines)-1]
	}

	terms, err := lf.ParseLines(strings.Join(lines, "\n"))
	if err != nil {
		return nil, fmt.Errorf("boxer: unreadable parser output: %w", err)
	}

	if len(terms) == 0 {
		return nil, fmt.Errorf("boxer: no logical form for %q", request)
	}

	p.log.Debug("sentence parsed",
		"terms", len(terms),
		"session_id", res.SessionID)

	return terms, nil
}
