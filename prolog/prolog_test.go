package prolog

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semlab/srlkit-go/annotation"
	"github.com/semlab/srlkit-go/kb"
	"github.com/semlab/srlkit-go/lf"
)

func testStore(t *testing.T) *kb.Store {
	t.Helper()

	frameDir := t.TempDir()
	feDir := t.TempDir()

	require.NoError(t, os.WriteFile(
		filepath.Join(frameDir, "rules.pl"),
		[]byte("frame_related(X, 'Ingestion') :- eat(X).\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(feDir, "rules.pl"),
		[]byte("frame_element(X, 'Ingestor', 'Ingestion') :- agent(_, X).\n"), 0o644))

	store, err := kb.NewStore(kb.StoreConfig{FrameDir: frameDir, FEDir: feDir})
	require.NoError(t, err)

	return store
}

// stubEngine stands in for swipl: it drains stdin and prints canned
// solution terms.
func stubEngine(t *testing.T, terms ...string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub engines require /bin/sh")
	}

	body := "#!/bin/sh\ncat >/dev/null\n"
	for _, term := range terms {
		body += "echo \"" + term + "\"\n"
	}

	path := filepath.Join(t.TempDir(), "swipl.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))

	return path
}

func TestScript_Rendering(t *testing.T) {
	var s Script
	s.Consult("/kb/fr/rules.pl").
		Fact(lf.Compound("eat", lf.Atom("c1"))).
		Enumerate(PredFrame, 2).
		Halt()

	out := s.String()
	require.Contains(t, out, ":- consult('/kb/fr/rules.pl').")
	require.Contains(t, out, ":- assertz(eat(c1)).")
	require.Contains(t, out, ":- forall(frame_related(X0,X1), (print(frame_related(X0,X1)), nl)).")
	require.Contains(t, out, ":- halt.")
}

func TestScript_EscapesQuotedPaths(t *testing.T) {
	var s Script
	s.Consult("/rules/don't.pl")

	require.Contains(t, s.String(), `consult('/rules/don\'t.pl')`)
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestFrameMatching_ParsesSolutions(t *testing.T) {
	a, err := New(Config{
		Path:  stubEngine(t, "frame_related(c1,'Ingestion')"),
		Args:  []string{},
		Store: testStore(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	terms, err := a.FrameMatching(context.Background(), []*lf.Term{
		lf.Compound("eat", lf.Atom("c1")),
	})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	require.Equal(t, PredFrame, terms[0].Functor)
	require.Equal(t, "Ingestion", terms[0].Arg(1).Functor)
}

func TestMatching_BadOutputFails(t *testing.T) {
	a, err := New(Config{
		Path:  stubEngine(t, "frame_related(c1"),
		Args:  []string{},
		Store: testStore(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Matching(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unreadable engine output")
}

func TestAnnotate_ProjectsTokenSpans(t *testing.T) {
	a, err := New(Config{
		Path: stubEngine(t,
			"frame_related(c2,'Ingestion')",
			"frame_element(c1,'Ingestor','Ingestion')"),
		Args:  []string{},
		Store: testStore(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	text := "The boy ate."
	tokens := []Token{
		{Const: "c1", Start: 4, End: 7},
		{Const: "c2", Start: 8, End: 11},
	}

	sentence, err := a.Annotate(context.Background(), text, tokens, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"Ingestion"}, sentence.Frames())

	set := sentence.Set("Ingestion")
	require.Equal(t, "ate", sentence.Slice(set.Layer(annotation.LayerTarget).Labels[0]))

	fe := set.Layer(annotation.LayerFE).Labels[0]
	require.Equal(t, "Ingestor", fe.Name)
	require.Equal(t, "boy", sentence.Slice(fe))
}

func TestProject_SkipsUnknownConstants(t *testing.T) {
	sentence := Project("The boy ate.", nil, []*lf.Term{
		lf.Compound("frame_related", lf.Atom("c9"), lf.Atom("Ingestion")),
	})

	set := sentence.Set("Ingestion")
	require.Nil(t, set.Layer(annotation.LayerTarget))
	require.Equal(t, []string{"Ingestion"}, sentence.Frames())
}
