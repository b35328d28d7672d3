package prolog

import (
	"fmt"
	"strings"

	"github.com/semlab/srlkit-go/lf"
)

// Script accumulates the goals sent to the inference engine on stdin for
// one analysis run: consult the theory and rules, load the sentence facts,
// enumerate solutions, halt.
type Script struct {
	goals []string
}

// Consult adds a directive loading a Prolog source file.
func (s *Script) Consult(path string) *Script {
	s.goals = append(s.goals, fmt.Sprintf(":- consult('%s').", escapeAtom(path)))

	return s
}

// Fact asserts one ground term.
func (s *Script) Fact(term *lf.Term) *Script {
	s.goals = append(s.goals, fmt.Sprintf(":- assertz(%s).", term))

	return s
}

// Enumerate adds a goal printing every solution of pred/arity, one term
// per line, in the syntax lf.ParseLines reads back.
func (s *Script) Enumerate(pred string, arity int) *Script {
	vars := make([]string, arity)
	for i := range vars {
		vars[i] = fmt.Sprintf("X%d", i)
	}

	head := fmt.Sprintf("%s(%s)", pred, strings.Join(vars, ","))
	s.goals = append(s.goals, fmt.Sprintf(
		":- forall(%s, (print(%s), nl)).", head, head))

	return s
}

// Halt terminates the engine, ending the disposable exchange.
func (s *Script) Halt() *Script {
	s.goals = append(s.goals, ":- halt.")

	return s
}

// String renders the script, one directive per line.
func (s *Script) String() string {
	return strings.Join(s.goals, "\n") + "\n"
}

func escapeAtom(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`)
}
