// Package prolog runs frame and frame-element inference over a sentence's
// logical form by driving an external Prolog engine. Each analysis is one
// disposable exchange: the sentence facts and rule base are loaded, the
// matching predicates are enumerated, and the engine halts.
package prolog

import (
	"context"
	"fmt"
	"log/slog"

	srlkit "github.com/semlab/srlkit-go"
	"github.com/semlab/srlkit-go/annotation"
	"github.com/semlab/srlkit-go/kb"
	"github.com/semlab/srlkit-go/lf"
)

const (
	// PredFrame is the frame-matching predicate: frame_related(Const, Frame).
	PredFrame = "frame_related"
	// PredFrameElement is the frame-element predicate:
	// frame_element(Const, Element, Frame).
	PredFrameElement = "frame_element"
)

// Token ties a logical-form constant to the character span of the word it
// denotes, so inference results can be projected back onto the text.
type Token struct {
	Const string
	Start int
	End   int
}

// Analyser drives the inference engine against the rule base.
type Analyser struct {
	log    *slog.Logger
	engine *srlkit.Engine
	store  *kb.Store
}

// Config assembles an Analyser. Store is required.
type Config struct {
	// Path is the Prolog executable. Defaults to "swipl".
	Path string
	// Args are extra command-line arguments. Defaults to --quiet.
	Args []string
	// Store is the rule base.
	Store *kb.Store
	// RetryCount is the respawn-and-retry budget per analysis.
	RetryCount int
	// Logger for operational output.
	Logger *slog.Logger
}

// New creates an Analyser with its own disposable-mode engine.
func New(cfg Config) (*Analyser, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("prolog: rule base store is required")
	}

	path := cfg.Path
	if path == "" {
		path = "swipl"
	}

	args := cfg.Args
	if args == nil {
		args = []string{"--quiet"}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine, err := srlkit.New(
		srlkit.WithExecutable(path),
		srlkit.WithArgs(args...),
		srlkit.WithMode(srlkit.ModeDisposable),
		srlkit.WithDisplayName("prolog"),
		srlkit.WithRetryCount(cfg.RetryCount),
		srlkit.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &Analyser{
		log:    logger.With("component", "prolog"),
		engine: engine,
		store:  cfg.Store,
	}, nil
}

// Close releases the engine.
func (a *Analyser) Close() error {
	return a.engine.Close()
}

// FrameMatching enumerates frame_related/2 solutions for the sentence.
func (a *Analyser) FrameMatching(ctx context.Context, facts []*lf.Term) ([]*lf.Term, error) {
	return a.enumerate(ctx, facts, []string{PredFrame})
}

// FrameElementMatching enumerates frame_element/3 solutions.
func (a *Analyser) FrameElementMatching(ctx context.Context, facts []*lf.Term) ([]*lf.Term, error) {
	return a.enumerate(ctx, facts, []string{PredFrameElement})
}

// Matching enumerates both predicates in one engine run.
func (a *Analyser) Matching(ctx context.Context, facts []*lf.Term) ([]*lf.Term, error) {
	return a.enumerate(ctx, facts, []string{PredFrame, PredFrameElement})
}

func (a *Analyser) enumerate(ctx context.Context, facts []*lf.Term, preds []string) ([]*lf.Term, error) {
	snap := a.store.Snapshot()

	var script Script

	for _, file := range snap.Files() {
		script.Consult(file)
	}

	for _, fact := range facts {
		script.Fact(fact)
	}

	for _, pred := range preds {
		script.Enumerate(pred, arityOf(pred))
	}

	script.Halt()

	res, err := a.engine.Execute(ctx, script.String())
	if err != nil {
		return nil, err
	}

	terms, err := lf.ParseLines(res.Output)
	if err != nil {
		return nil, fmt.Errorf("prolog: unreadable engine output: %w", err)
	}

	a.log.Debug("inference complete",
		"generation", snap.Generation,
		"facts", len(facts),
		"solutions", len(terms),
		"session_id", res.SessionID)

	return terms, nil
}

func arityOf(pred string) int {
	if pred == PredFrameElement {
		return 3
	}

	return 2
}

// Annotate runs Matching and projects the solutions back onto the sentence
// text using the token spans. Solutions over constants with no token are
// kept as frame instances without labels.
func (a *Analyser) Annotate(ctx context.Context, text string, tokens []Token, facts []*lf.Term) (*annotation.Sentence, error) {
	terms, err := a.Matching(ctx, facts)
	if err != nil {
		return nil, err
	}

	return Project(text, tokens, terms), nil
}

// Project builds a Sentence from inference solutions. Exported separately
// so results from a prior run can be re-projected without the engine.
func Project(text string, tokens []Token, terms []*lf.Term) *annotation.Sentence {
	spans := make(map[string]Token, len(tokens))
	for _, tok := range tokens {
		spans[tok.Const] = tok
	}

	sentence := &annotation.Sentence{Text: text}

	for _, term := range terms {
		switch {
		case term.Functor == PredFrame && term.Arity() == 2:
			set := sentence.Set(term.Arg(1).Functor)

			if tok, ok := spans[term.Arg(0).Functor]; ok {
				set.AddLabel(annotation.LayerTarget, annotation.Label{
					Name:  "Target",
					Start: tok.Start,
					End:   tok.End,
				})
			}

		case term.Functor == PredFrameElement && term.Arity() == 3:
			set := sentence.Set(term.Arg(2).Functor)

			if tok, ok := spans[term.Arg(0).Functor]; ok {
				set.AddLabel(annotation.LayerFE, annotation.Label{
					Name:  term.Arg(1).Functor,
					Start: tok.Start,
					End:   tok.End,
				})
			}
		}
	}

	return sentence
}
