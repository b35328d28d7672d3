package srlkit

import (
	"strings"

	"github.com/semlab/srlkit-go/internal/config"
)

// StopCondition decides whether the response accumulated so far is complete.
// It is evaluated once before any read (allowing zero-line completion) and
// again after every line. It must be a pure function of the line slice.
type StopCondition = config.StopCondition

// StopImmediately completes with zero lines. It is the default startup-ready
// condition for engines that print no banner.
func StopImmediately() StopCondition {
	return func([]string) bool { return true }
}

// StopAfterAnyLine completes once at least one line has arrived. It is the
// default response-complete condition.
func StopAfterAnyLine() StopCondition {
	return func(lines []string) bool { return len(lines) > 0 }
}

// StopAfterLines completes once n lines have arrived.
func StopAfterLines(n int) StopCondition {
	return func(lines []string) bool { return len(lines) >= n }
}

// StopOnLine completes once a line exactly equal to sentinel arrives.
func StopOnLine(sentinel string) StopCondition {
	return func(lines []string) bool {
		return len(lines) > 0 && lines[len(lines)-1] == sentinel
	}
}

// StopOnPrefix completes once a line starting with prefix arrives.
func StopOnPrefix(prefix string) StopCondition {
	return func(lines []string) bool {
		return len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], prefix)
	}
}

// StopNever never completes. Useful with a poll budget to drain everything a
// child prints until it goes quiet.
func StopNever() StopCondition {
	return func([]string) bool { return false }
}
