// Package metrics exposes Prometheus counters for engine transactions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transactions counts completed Execute calls by engine, mode and outcome.
	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "srlkit",
		Name:      "transactions_total",
		Help:      "Engine transactions by mode and outcome.",
	}, []string{"engine", "mode", "outcome"})

	// Respawns counts child process spawns, first starts included.
	Respawns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "srlkit",
		Name:      "respawns_total",
		Help:      "Child process spawns per engine.",
	}, []string{"engine"})

	// Retries counts respawn-and-retry attempts triggered by I/O failures.
	Retries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "srlkit",
		Name:      "retries_total",
		Help:      "Transaction retries after I/O failures per engine.",
	}, []string{"engine"})

	// PollTimeouts counts transactions that exhausted their poll budget.
	PollTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "srlkit",
		Name:      "poll_timeouts_total",
		Help:      "Transactions that exhausted the poll budget per engine.",
	}, []string{"engine"})
)

// Outcome labels for the Transactions counter.
const (
	OutcomeOK       = "ok"
	OutcomeIOError  = "io_error"
	OutcomeTimeout  = "poll_timeout"
	OutcomeProtocol = "protocol_error"
	OutcomeProcess  = "process_error"
)
