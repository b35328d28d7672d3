// Package pipeline assembles the full analysis chain: sentence in, parsed
// logical form from the semantic parser, frame annotations out of the
// inference engine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"unicode"
	"unicode/utf8"

	"github.com/semlab/srlkit-go/annotation"
	"github.com/semlab/srlkit-go/boxer"
	"github.com/semlab/srlkit-go/config"
	"github.com/semlab/srlkit-go/kb"
	"github.com/semlab/srlkit-go/lf"
	"github.com/semlab/srlkit-go/prolog"
)

// Pipeline runs sentences through the parser and the inference engine.
// Safe for sequential use; each engine serves one request at a time.
type Pipeline struct {
	log      *slog.Logger
	store    *kb.Store
	parser   *boxer.Parser
	analyser *prolog.Analyser
	watcher  *kb.Watcher
}

// New builds the pipeline from configuration. When cfg.KB.Watch is set the
// rule base reloads on file changes until ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := kb.NewStore(kb.StoreConfig{
		FrameDir:  cfg.KB.FrameDir,
		FEDir:     cfg.KB.FEDir,
		TheoryDir: cfg.KB.TheoryDir,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("rule base: %w", err)
	}

	parser, err := boxer.New(boxer.Config{
		Path:            cfg.Boxer.Path,
		Args:            cfg.Boxer.Args,
		ReadyLine:       cfg.Boxer.ReadyLine,
		RetryCount:      cfg.Boxer.RetryCount,
		PollInterval:    cfg.Boxer.PollInterval,
		MaxPollAttempts: cfg.Boxer.MaxPollAttempts,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	analyser, err := prolog.New(prolog.Config{
		Path:       cfg.Prolog.Path,
		Args:       cfg.Prolog.Args,
		Store:      store,
		RetryCount: cfg.Prolog.RetryCount,
		Logger:     logger,
	})
	if err != nil {
		_ = parser.Close()

		return nil, err
	}

	p := &Pipeline{
		log:      logger.With("component", "pipeline"),
		store:    store,
		parser:   parser,
		analyser: analyser,
	}

	if cfg.KB.Watch {
		watcher, err := kb.NewWatcher(kb.WatcherConfig{Store: store, Logger: logger})
		if err != nil {
			_ = p.Close()

			return nil, err
		}

		if err := watcher.Start(ctx); err != nil {
			_ = watcher.Stop()
			_ = p.Close()

			return nil, err
		}

		p.watcher = watcher
	}

	return p, nil
}

// Close shuts down both engines and the watcher.
func (p *Pipeline) Close() error {
	var firstErr error

	if p.watcher != nil {
		firstErr = p.watcher.Stop()
	}

	if err := p.parser.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := p.analyser.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}

// Parse returns the sentence's logical form.
func (p *Pipeline) Parse(ctx context.Context, sentence string) ([]*lf.Term, error) {
	return p.parser.Parse(ctx, sentence)
}

// FrameMatching parses the sentence and enumerates evoked frames.
func (p *Pipeline) FrameMatching(ctx context.Context, sentence string) ([]*lf.Term, error) {
	facts, err := p.parser.Parse(ctx, sentence)
	if err != nil {
		return nil, err
	}

	return p.analyser.FrameMatching(ctx, facts)
}

// FrameElementMatching parses the sentence and enumerates frame elements.
func (p *Pipeline) FrameElementMatching(ctx context.Context, sentence string) ([]*lf.Term, error) {
	facts, err := p.parser.Parse(ctx, sentence)
	if err != nil {
		return nil, err
	}

	return p.analyser.FrameElementMatching(ctx, facts)
}

// Matching parses the sentence and enumerates both predicates.
func (p *Pipeline) Matching(ctx context.Context, sentence string) ([]*lf.Term, error) {
	facts, err := p.parser.Parse(ctx, sentence)
	if err != nil {
		return nil, err
	}

	return p.analyser.Matching(ctx, facts)
}

// Annotate runs the full chain and projects the results onto the text.
func (p *Pipeline) Annotate(ctx context.Context, sentence string) (*annotation.Sentence, error) {
	facts, err := p.parser.Parse(ctx, sentence)
	if err != nil {
		return nil, err
	}

	return p.analyser.Annotate(ctx, sentence, Tokenize(sentence), facts)
}

// Frames returns only the frame names evoked in the sentence.
func (p *Pipeline) Frames(ctx context.Context, sentence string) ([]string, error) {
	sent, err := p.Annotate(ctx, sentence)
	if err != nil {
		return nil, err
	}

	return sent.Frames(), nil
}

// Tokenize splits the sentence into word tokens with character spans. The
// parser names its discourse constants c1..cN in token order, so the i-th
// token binds to constant c<i+1>. Trailing punctuation is excluded from
// the span.
func Tokenize(text string) []prolog.Token {
	var tokens []prolog.Token

	inWord := false
	start := 0

	flush := func(end int) {
		if !inWord {
			return
		}

		inWord = false

		for end > start {
			r, size := utf8.DecodeLastRuneInString(text[start:end])
			if !unicode.IsPunct(r) {
				break
			}

			end -= size
		}

		if end > start {
			tokens = append(tokens, prolog.Token{
				Const: fmt.Sprintf("c%d", len(tokens)+1),
				Start: start,
				End:   end,
			})
		}
	}

	for i, r := range text {
		if unicode.IsSpace(r) {
			flush(i)

			continue
		}

		if !inWord {
			inWord = true
			start = i
		}
	}

	flush(len(text))

	return tokens
}
