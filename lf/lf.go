// Package lf models the Prolog-style logical-form terms the linguistic
// engines print, one ground term per line:
//
//	frame_related(c1, 'Self_motion').
//	frame_element(c2, 'Goal', 'Self_motion').
//
// Terms nest (f(g(a), b)), atoms may be quoted, and engine output may
// contain % comment lines and blank lines, which ParseLines skips.
package lf

import (
	"fmt"
	"strings"
	"unicode"
)

// Term is a functor with zero or more argument terms. A leaf has no
// arguments and represents a plain atom, number or variable.
type Term struct {
	Functor string
	Args    []*Term
}

// Atom returns a leaf term.
func Atom(name string) *Term {
	return &Term{Functor: name}
}

// Compound returns a term with arguments.
func Compound(functor string, args ...*Term) *Term {
	return &Term{Functor: functor, Args: args}
}

// IsLeaf reports whether the term has no arguments.
func (t *Term) IsLeaf() bool {
	return len(t.Args) == 0
}

// Arity returns the number of arguments.
func (t *Term) Arity() int {
	return len(t.Args)
}

// Arg returns the i-th argument, or nil if out of range.
func (t *Term) Arg(i int) *Term {
	if i < 0 || i >= len(t.Args) {
		return nil
	}

	return t.Args[i]
}

// String renders the term in the engines' own syntax, quoting atoms that
// need it. No trailing period.
func (t *Term) String() string {
	var b strings.Builder

	t.write(&b)

	return b.String()
}

func (t *Term) write(b *strings.Builder) {
	b.WriteString(quoteAtom(t.Functor))

	if len(t.Args) == 0 {
		return
	}

	b.WriteByte('(')

	for i, arg := range t.Args {
		if i > 0 {
			b.WriteByte(',')
		}

		arg.write(b)
	}

	b.WriteByte(')')
}

// quoteAtom wraps the atom in single quotes unless it is a number or a
// lowercase-initial identifier, mirroring the engines' own reader.
func quoteAtom(s string) string {
	if plainAtom(s) {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}

func plainAtom(s string) bool {
	if s == "" {
		return false
	}

	runes := []rune(s)

	if unicode.IsDigit(runes[0]) {
		for _, r := range runes[1:] {
			if !unicode.IsDigit(r) && r != '.' {
				return false
			}
		}

		return true
	}

	if !unicode.IsLower(runes[0]) {
		return false
	}

	for _, r := range runes[1:] {
		if r != '_' && !unicode.IsDigit(r) && !unicode.IsLetter(r) {
			return false
		}
	}

	return true
}

// Parse reads a single term, tolerating a trailing period.
func Parse(input string) (*Term, error) {
	p := &parser{input: strings.TrimSpace(input)}

	term, err := p.term()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	if p.peek() == '.' {
		p.pos++
		p.skipSpace()
	}

	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing input at offset %d: %q", p.pos, p.input[p.pos:])
	}

	return term, nil
}

// ParseLines parses engine output: one term per line, skipping blank lines
// and % comments.
func ParseLines(output string) ([]*Term, error) {
	var terms []*Term

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		term, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}

		terms = append(terms, term)
	}

	return terms, nil
}

// parser is a recursive-descent reader over a single term.
type parser struct {
	input string
	pos   int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}

	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) term() (*Term, error) {
	p.skipSpace()

	functor, err := p.atom()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	if p.peek() != '(' {
		return Atom(functor), nil
	}

	p.pos++ // consume '('

	var args []*Term

	for {
		arg, err := p.term()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		p.skipSpace()

		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++

			return Compound(functor, args...), nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at offset %d", p.pos)
		}
	}
}

func (p *parser) atom() (string, error) {
	p.skipSpace()

	if p.peek() == '\'' {
		return p.quoted()
	}

	start := p.pos

	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '(' || c == ')' || c == ',' || c == ' ' || c == '\t' || c == '.' && p.atEndAfterDot() {
			break
		}

		p.pos++
	}

	if p.pos == start {
		return "", fmt.Errorf("expected atom at offset %d", p.pos)
	}

	return p.input[start:p.pos], nil
}

// atEndAfterDot distinguishes the clause-terminating period from a dot
// inside an unquoted token (e.g. a float or a file name).
func (p *parser) atEndAfterDot() bool {
	rest := strings.TrimSpace(p.input[p.pos+1:])

	return rest == ""
}

func (p *parser) quoted() (string, error) {
	p.pos++ // consume opening quote

	var b strings.Builder

	for p.pos < len(p.input) {
		c := p.input[p.pos]

		switch c {
		case '\\':
			if p.pos+1 < len(p.input) {
				b.WriteByte(p.input[p.pos+1])
				p.pos += 2

				continue
			}

			return "", fmt.Errorf("dangling escape at offset %d", p.pos)
		case '\'':
			p.pos++

			return b.String(), nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}

	return "", fmt.Errorf("unterminated quoted atom")
}
