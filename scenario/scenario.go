// Package scenario holds the plain data model tying together
// publishers, subscribers, and the connect options they share. It has
// no behavior of its own; construction is the caller's responsibility
// (see cmd/mqttverify for the CLI's builder).
package scenario

import (
	"time"

	"github.com/coregrid/mqttverify/analyzer"
	"github.com/coregrid/mqttverify/broker"
	"github.com/coregrid/mqttverify/source"
)

// ConnectOptions configures how a runner connects to its broker.
type ConnectOptions struct {
	// ConnectTimeout bounds the initial connect budget. Must be > 0.
	ConnectTimeout time.Duration

	// ReconnectInterval, when non-nil, enables automatic reconnection
	// with this fixed min/max backoff. A nil value means a lost
	// connection is terminal.
	ReconnectInterval *time.Duration
}

// Publisher drives one or more Sources against one broker client.
type Publisher struct {
	Client  broker.Client
	Options ConnectOptions
	Sources []*source.Source
}

// Subscriber drains one or more topics on one broker client through an
// analyzer. Only Sinks[0] is used; the scenario model keeps the slice
// shape to match spec.md's data model, which requires "at least one"
// sink.
type Subscriber struct {
	Client  broker.Client
	Options ConnectOptions
	Topics  []string
	Sinks   []analyzer.Analyzer
}

// Scenario is a bundle of publishers and subscribers executed
// concurrently as one test.
type Scenario struct {
	Publishers  []Publisher
	Subscribers []Subscriber
}
