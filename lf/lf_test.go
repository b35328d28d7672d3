package lf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_LeafAtom(t *testing.T) {
	term, err := Parse("walk")
	require.NoError(t, err)
	require.Equal(t, "walk", term.Functor)
	require.True(t, term.IsLeaf())
}

func TestParse_Compound(t *testing.T) {
	term, err := Parse("frame_related(c1, 'Self_motion').")
	require.NoError(t, err)

	require.Equal(t, "frame_related", term.Functor)
	require.Equal(t, 2, term.Arity())
	require.Equal(t, "c1", term.Arg(0).Functor)
	require.Equal(t, "Self_motion", term.Arg(1).Functor)
}

func TestParse_Nested(t *testing.T) {
	term, err := Parse("fol(1, and(walk(e, x), agent(e, x)))")
	require.NoError(t, err)

	require.Equal(t, "fol", term.Functor)

	body := term.Arg(1)
	require.Equal(t, "and", body.Functor)
	require.Equal(t, "walk", body.Arg(0).Functor)
	require.Equal(t, []*Term{Atom("e"), Atom("x")}, body.Arg(0).Args)
}

func TestParse_QuotedAtomWithSpecials(t *testing.T) {
	term, err := Parse(`frame_element(c2, 'Theme', 'Cause_to_move\'s')`)
	require.NoError(t, err)
	require.Equal(t, "Cause_to_move's", term.Arg(2).Functor)
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{
		"",
		"f(a",
		"f(a,)",
		"f(a))",
		"'unterminated",
		"f(a) trailing",
	} {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestParseLines_SkipsCommentsAndBlanks(t *testing.T) {
	output := `
% engine banner line
frame_related(c1, 'Ingestion').

frame_element(c1, 'Ingestor', 'Ingestion').
% done
`

	terms, err := ParseLines(output)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	require.Equal(t, "frame_related", terms[0].Functor)
	require.Equal(t, "frame_element", terms[1].Functor)
}

func TestString_RoundTrip(t *testing.T) {
	for _, input := range []string{
		"walk",
		"frame_related(c1,'Self_motion')",
		"fol(1,and(walk(e,x),agent(e,x)))",
		"token(t1,0,4)",
	} {
		term, err := Parse(input)
		require.NoError(t, err)
		require.Equal(t, input, term.String())

		again, err := Parse(term.String())
		require.NoError(t, err)
		require.Equal(t, term, again)
	}
}

func TestString_QuotesWhenNeeded(t *testing.T) {
	require.Equal(t, "'Self motion'", Atom("Self motion").String())
	require.Equal(t, `'don\'t'`, Atom("don't").String())
	require.Equal(t, "plain_atom1", Atom("plain_atom1").String())
}
