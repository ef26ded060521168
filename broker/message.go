// Package broker defines the contract the scenario engine uses to talk
// to an MQTT broker, and a concrete implementation backed by the
// Eclipse Paho v5 client (github.com/eclipse/paho.golang).
package broker

import (
	"context"
	"time"
)

// Message is a received publication: a topic and a payload. It is the
// unit the subscriber runner feeds into an analyzer.
type Message struct {
	Topic   string
	Payload []byte
}

// Client is the contract the core consumes from an MQTT connection. It
// treats the concrete client library as a black box: any implementation
// satisfying this interface can drive a publisher or subscriber runner,
// including the in-memory fake in broker/brokertest used by this
// repo's own tests.
type Client interface {
	// Connect attempts to establish the session, retrying internally
	// until ctx is done. Clean-session is always true.
	Connect(ctx context.Context) error

	// Publish sends payload to topic at the given QoS. For QoS 0 it
	// completes once the payload has been handed to the network.
	Publish(ctx context.Context, topic string, payload []byte, qos byte) error

	// Subscribe issues a batch subscribe for topics, one entry per
	// topic, all at the given qos.
	Subscribe(ctx context.Context, topics []string, qos byte) error

	// Incoming returns the channel of messages delivered to this
	// client's subscriptions. A nil Message on the channel is the
	// "empty" sentinel: the connection was lost in a way the client
	// observed and buffered as an event; the channel keeps being usable
	// afterwards (e.g. once a reconnect re-establishes it).
	Incoming() <-chan *Message

	// OnConnected registers fn to run every time the client
	// (re-)establishes a connection, including the very first one.
	OnConnected(fn func())

	// DisconnectAfter closes the session, allowing up to grace for
	// in-flight work to drain.
	DisconnectAfter(ctx context.Context, grace time.Duration) error

	// Lost returns a channel that receives a single non-nil error if
	// the connection is lost in a way this Client will not recover
	// from on its own (no ReconnectInterval configured), then is
	// closed. A Client with reconnection armed never sends on or closes
	// this channel, and DisconnectAfter does not close it.
	Lost() <-chan error
}
