// Package srlkit drives external linguistic-reasoning engines (a Prolog
// logic-inference engine, a semantic parser) as interactive child processes
// and turns their free-form textual output into structured results.
//
// The engines print responses with no message framing: no length header,
// just lines of text. The driver keeps a long-lived child alive over
// stdin/stdout/stderr pipes, detects response completion with a
// caller-supplied stop condition, never blocks forever on a slow or dead
// child, and recovers from broken pipes by respawning the child and
// replaying the request.
//
// # Basic Usage
//
// A persistent engine answers many requests over one child process:
//
//	eng, err := srlkit.New(
//	    srlkit.WithExecutable("/usr/bin/swipl"),
//	    srlkit.WithArgs("-q"),
//	    srlkit.WithMaxPollAttempts(50),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	res, err := eng.ExecuteWith(ctx, "member(X, [a,b]), writeln(X), fail; writeln(done).\n",
//	    srlkit.StopOnLine("done"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Lines)
//
// A disposable engine gets a fresh child per request and communicates once
// via a full write/close/drain exchange:
//
//	eng, err := srlkit.New(
//	    srlkit.WithExecutable("/usr/bin/swipl"),
//	    srlkit.WithMode(srlkit.ModeDisposable),
//	)
//
// # Response Completion
//
// "Response complete" is protocol-specific, so the stop condition is a
// first-class value: a pure predicate over the lines received so far,
// evaluated once before reading begins and after every line. Built-ins
// cover the common cases (StopAfterAnyLine, StopOnLine, StopAfterLines);
// WithStartupReady drains banner text right after spawn so it never leaks
// into the first transaction.
//
// # Error Handling
//
// Failures are typed: SpawnError is fatal and never retried; IOError means
// the respawn-and-retry budget ran out; PollTimeoutError means the child
// never completed a response within the poll budget and is distinct from a
// successful empty response; ProtocolError means the post-processor rejected
// the output (the session stays usable).
//
//	if timeoutErr, ok := errors.AsType[*srlkit.PollTimeoutError](err); ok {
//	    log.Printf("engine silent for %d polls", timeoutErr.Attempts)
//	}
//
// The higher-level prolog, boxer, lf and annotation packages build the
// frame-semantic annotation pipeline on top of this driver.
package srlkit
