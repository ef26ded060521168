// Package analyzer implements the small, closed set of verdict-
// rendering analyzers the subscriber runner feeds received messages
// through: a session-id filter and a message counter, composable by
// nesting (filter wraps counter).
package analyzer

import (
	"fmt"
	"strings"

	"github.com/coregrid/mqttverify/broker"
	"github.com/coregrid/mqttverify/verifyerr"
)

// Verdict is the outcome of analyzing one message.
type Verdict int

const (
	// Continue means keep consuming; no verdict yet.
	Continue Verdict = iota
	// Done means the analyzer has seen everything it expects; the
	// subscriber runner should stop cleanly.
	Done
)

// Analyzer renders a running verdict over a stream of received
// messages. Implementations are single-threaded with respect to a
// given subscriber runner: Analyze is never called concurrently for
// the same Analyzer.
type Analyzer interface {
	// Analyze consumes one message and returns Continue or Done, or a
	// non-nil error (always a *verifyerr.VerificationFailure) if the
	// stream has violated an expected property.
	Analyze(msg *broker.Message) (Verdict, error)
}

// SessionIdFilter forwards messages whose payload starts with
// "<id>:" to child; every other message yields Continue without
// reaching child. The colon is part of the match, so a session id
// "foo" does not match a payload stamped by session "foobar".
type SessionIdFilter struct {
	prefix string
	child  Analyzer
}

// NewSessionIdFilter returns a filter that forwards only messages
// stamped with the given session id to child.
func NewSessionIdFilter(id string, child Analyzer) *SessionIdFilter {
	return &SessionIdFilter{prefix: id + ":", child: child}
}

// Analyze implements Analyzer.
func (f *SessionIdFilter) Analyze(msg *broker.Message) (Verdict, error) {
	if !strings.HasPrefix(string(msg.Payload), f.prefix) {
		return Continue, nil
	}
	return f.child.Analyze(msg)
}

// CountingAnalyzer counts accepted messages against an expected total.
// It returns Continue while the count is below the total, Done the
// instant it reaches the total, and fails if a message arrives after
// the total has already been reached.
type CountingAnalyzer struct {
	count         int
	expectedTotal int
}

// NewCountingAnalyzer returns a counter expecting exactly
// expectedTotal messages.
func NewCountingAnalyzer(expectedTotal int) *CountingAnalyzer {
	return &CountingAnalyzer{expectedTotal: expectedTotal}
}

// Analyze implements Analyzer.
func (c *CountingAnalyzer) Analyze(_ *broker.Message) (Verdict, error) {
	c.count++
	switch {
	case c.count > c.expectedTotal:
		return Continue, &verifyerr.VerificationFailure{
			Reason: fmt.Sprintf("Expected only %d messages", c.expectedTotal),
		}
	case c.count == c.expectedTotal:
		return Done, nil
	default:
		return Continue, nil
	}
}
