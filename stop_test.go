package srlkit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStopConditions(t *testing.T) {
	tests := []struct {
		name  string
		stop  StopCondition
		lines []string
		want  bool
	}{
		{"immediately with no lines", StopImmediately(), nil, true},
		{"any line with no lines", StopAfterAnyLine(), nil, false},
		{"any line with one line", StopAfterAnyLine(), []string{"x"}, true},
		{"after lines below count", StopAfterLines(3), []string{"a", "b"}, false},
		{"after lines at count", StopAfterLines(3), []string{"a", "b", "c"}, true},
		{"on line not seen", StopOnLine("halt."), []string{"f(a)."}, false},
		{"on line seen last", StopOnLine("halt."), []string{"f(a).", "halt."}, true},
		{"on line seen earlier only", StopOnLine("halt."), []string{"halt.", "f(a)."}, false},
		{"on prefix", StopOnPrefix("yes"), []string{"yes | ?-"}, true},
		{"never", StopNever(), []string{"a", "b", "c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.stop(tt.lines))
		})
	}
}
