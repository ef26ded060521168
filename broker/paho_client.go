package broker

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
)

// incomingBufferSize is the fixed capacity of the incoming-message
// channel, per spec.md §4.5.
const incomingBufferSize = 100

// initialConnectRetryDelay is how quickly the underlying client retries
// a failed connection attempt when no reconnect interval is configured.
// When one is configured, that interval is the delay between attempts
// instead, during the initial connect budget as well as afterwards.
const initialConnectRetryDelay = 50 * time.Millisecond

// PahoClient is the broker.Client implementation backed by
// github.com/eclipse/paho.golang's autopaho connection manager. It
// mirrors the construction used by
// StudioLambda-Cosmos/framework/event/mqtt.go's MQTTBroker, adapted
// from a fan-out pub/sub broker to one publisher or subscriber
// session's single underlying connection.
type PahoClient struct {
	serverURL         *url.URL
	reconnectInterval *time.Duration

	mu    sync.Mutex
	cm    *autopaho.ConnectionManager
	hooks []func()

	incoming chan *Message
	lost     chan error
	lostOnce sync.Once
}

// NewPahoClient returns a Client dialing uri (e.g. "mqtt://host:1883").
// reconnectInterval mirrors scenario.ConnectOptions.ReconnectInterval:
// nil disables automatic reconnection.
func NewPahoClient(uri string, reconnectInterval *time.Duration) (*PahoClient, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid broker uri %q: %w", uri, err)
	}

	return &PahoClient{
		serverURL:         u,
		reconnectInterval: reconnectInterval,
		incoming:          make(chan *Message, incomingBufferSize),
		lost:              make(chan error, 1),
	}, nil
}

// OnConnected implements Client.
func (c *PahoClient) OnConnected(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

func (c *PahoClient) runHooks() {
	c.mu.Lock()
	hooks := make([]func(), len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// pushEmpty enqueues the "empty" sentinel without blocking: if the
// buffer is momentarily full, the consumer will observe the loss
// through Lost or through the next real message's absence instead.
func (c *PahoClient) pushEmpty() {
	select {
	case c.incoming <- nil:
	default:
	}
}

func (c *PahoClient) tripLost(err error) {
	if c.reconnectInterval != nil {
		// Reconnection is armed; autopaho will retry on its own and
		// OnConnectionUp will fire again. Not a terminal condition.
		return
	}
	c.lostOnce.Do(func() {
		c.lost <- err
		close(c.lost)
	})
}

// Connect implements Client. ctx's deadline is the connect_timeout
// budget; autopaho retries every initialConnectRetryDelay (or every
// reconnectInterval, when set) until either it succeeds or ctx is done.
// The connection itself outlives ctx and is closed by DisconnectAfter.
func (c *PahoClient) Connect(ctx context.Context) error {
	retryDelay := initialConnectRetryDelay
	if c.reconnectInterval != nil {
		retryDelay = *c.reconnectInterval
	}

	// A failed attempt before the first connection is part of the
	// initial connect budget, not a lost connection.
	up := false
	lostAfterUp := func(err error) {
		c.mu.Lock()
		wasUp := up
		c.mu.Unlock()
		if wasUp {
			c.tripLost(err)
		}
	}

	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{c.serverURL},
		CleanStartOnInitialConnection: true,
		SessionExpiryInterval:         0,
		ConnectRetryDelay:             retryDelay,
		OnConnectionUp: func(*autopaho.ConnectionManager, *paho.Connack) {
			c.mu.Lock()
			up = true
			c.mu.Unlock()
			c.runHooks()
		},
		OnConnectError: func(err error) {
			c.pushEmpty()
			lostAfterUp(fmt.Errorf("connection lost: %w", err))
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "mqttverify-" + uuid.NewString(),
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					c.incoming <- &Message{Topic: pr.Packet.Topic, Payload: pr.Packet.Payload}
					return true, nil
				},
			},
			OnServerDisconnect: func(*paho.Disconnect) {
				c.pushEmpty()
				c.tripLost(fmt.Errorf("server disconnected"))
			},
			OnClientError: func(err error) {
				c.pushEmpty()
				c.tripLost(fmt.Errorf("client error: %w", err))
			},
		},
	}

	cm, err := autopaho.NewConnection(context.WithoutCancel(ctx), cfg)
	if err != nil {
		return err
	}
	c.cm = cm

	return cm.AwaitConnection(ctx)
}

// Publish implements Client.
func (c *PahoClient) Publish(ctx context.Context, topic string, payload []byte, qos byte) error {
	_, err := c.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     qos,
		Payload: payload,
	})
	return err
}

// Subscribe implements Client.
func (c *PahoClient) Subscribe(ctx context.Context, topics []string, qos byte) error {
	subs := make([]paho.SubscribeOptions, len(topics))
	for i, topic := range topics {
		subs[i] = paho.SubscribeOptions{Topic: topic, QoS: qos}
	}

	_, err := c.cm.Subscribe(ctx, &paho.Subscribe{Subscriptions: subs})
	return err
}

// Incoming implements Client.
func (c *PahoClient) Incoming() <-chan *Message {
	return c.incoming
}

// DisconnectAfter implements Client.
func (c *PahoClient) DisconnectAfter(ctx context.Context, grace time.Duration) error {
	gctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()
	return c.cm.Disconnect(gctx)
}

// Lost implements Client.
func (c *PahoClient) Lost() <-chan error {
	return c.lost
}
