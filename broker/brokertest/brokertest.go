// Package brokertest provides an in-process fake satisfying
// broker.Client, used by this repo's own tests to exercise the
// publisher/subscriber runners and the scenario executor without a
// live MQTT broker (spec.md's own Non-goals keep broker
// containerisation out of the tested core). It plays the same role the
// teacher's several contract.Events implementations (MQTT, AMQP, NATS,
// Redis, in-memory) play for each other: one more concrete
// implementation of a small interface.
package brokertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coregrid/mqttverify/broker"
)

// Hub is the shared in-memory broker that every Client in a test
// dials into. Publishes from one client are delivered to every other
// connected client subscribed to the same topic.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// NewClient returns a new Client dialing this hub. reconnectInterval
// mirrors scenario.ConnectOptions.ReconnectInterval.
func (h *Hub) NewClient(reconnectInterval *time.Duration) *Client {
	c := &Client{
		hub:               h,
		reconnectInterval: reconnectInterval,
		topics:            make(map[string]struct{}),
		incoming:          make(chan *broker.Message, 100),
		lost:              make(chan error, 1),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) publish(from *Client, msg *broker.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c == from {
			continue
		}
		if !c.isConnected() {
			continue
		}
		if !c.subscribedTo(msg.Topic) {
			continue
		}
		select {
		case c.incoming <- msg:
		default:
		}
	}
}

// Client is a fake broker.Client backed by a Hub. Beyond the
// broker.Client contract it exposes a control surface
// (DropConnection, FailConnect) so tests can drive the
// broker-restart scenarios spec.md §8 describes (S5-S8) deterministically.
type Client struct {
	hub               *Hub
	reconnectInterval *time.Duration

	mu          sync.Mutex
	connected   bool
	failConnect bool
	topics      map[string]struct{}
	hooks       []func()

	incoming chan *broker.Message
	lost     chan error
	lostOnce sync.Once
}

// FailConnect(true) makes every future Connect attempt fail until
// FailConnect(false) is called, simulating an unroutable broker address
// (scenario S8).
func (c *Client) FailConnect(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failConnect = fail
}

// Connect implements broker.Client: a tight retry loop bounded by
// ctx's deadline, mirroring the real connect-with-budget protocol.
func (c *Client) Connect(ctx context.Context) error {
	for {
		c.mu.Lock()
		fail := c.failConnect
		c.mu.Unlock()

		if !fail {
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.runHooks()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (c *Client) runHooks() {
	c.mu.Lock()
	hooks := make([]func(), len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// OnConnected implements broker.Client.
func (c *Client) OnConnected(fn func()) {
	c.mu.Lock()
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

func (c *Client) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) subscribedTo(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.topics[topic]
	return ok
}

// IsSubscribed reports whether this client currently holds a
// subscription to topic. Exposed for tests that need to wait out a
// connect/resubscribe race before publishing.
func (c *Client) IsSubscribed(topic string) bool {
	return c.isConnected() && c.subscribedTo(topic)
}

// Publish implements broker.Client.
func (c *Client) Publish(_ context.Context, topic string, payload []byte, _ byte) error {
	if !c.isConnected() {
		return errors.New("not connected")
	}
	c.hub.publish(c, &broker.Message{Topic: topic, Payload: payload})
	return nil
}

// Subscribe implements broker.Client.
func (c *Client) Subscribe(_ context.Context, topics []string, _ byte) error {
	if !c.isConnected() {
		return errors.New("not connected")
	}
	c.mu.Lock()
	for _, t := range topics {
		c.topics[t] = struct{}{}
	}
	c.mu.Unlock()
	return nil
}

// Incoming implements broker.Client.
func (c *Client) Incoming() <-chan *broker.Message {
	return c.incoming
}

// DisconnectAfter implements broker.Client.
func (c *Client) DisconnectAfter(context.Context, time.Duration) error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

// Lost implements broker.Client.
func (c *Client) Lost() <-chan error {
	return c.lost
}

// DropConnection simulates a broker restart: the connection is marked
// lost, an empty sentinel is pushed to Incoming, and either a terminal
// error is tripped (no reconnect armed) or an automatic reconnect is
// scheduled after reconnectInterval (mirroring autopaho's behavior).
func (c *Client) DropConnection() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	select {
	case c.incoming <- nil:
	default:
	}

	if c.reconnectInterval == nil {
		c.lostOnce.Do(func() {
			c.lost <- errors.New("connection lost")
			close(c.lost)
		})
		return
	}

	go func() {
		time.Sleep(*c.reconnectInterval)
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		c.runHooks()
	}()
}
