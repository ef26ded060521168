package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/coregrid/mqttverify/broker/brokertest"
	"github.com/coregrid/mqttverify/expansion"
	"github.com/coregrid/mqttverify/runner"
	"github.com/coregrid/mqttverify/scenario"
	"github.com/coregrid/mqttverify/source"
	"github.com/stretchr/testify/require"
)

func TestRunPublisherDeliversEverySourceMessage(t *testing.T) {
	hub := brokertest.NewHub()
	pub := hub.NewClient(nil)
	sub := hub.NewClient(nil)

	require.NoError(t, sub.Connect(context.Background()))
	require.NoError(t, sub.Subscribe(context.Background(), []string{"topic-a", "topic-b"}, 0))

	topicA, err := expansion.Precompile("topic-a")
	require.NoError(t, err)
	topicB, err := expansion.Precompile("topic-b")
	require.NoError(t, err)

	p := scenario.Publisher{
		Client:  pub,
		Options: scenario.ConnectOptions{ConnectTimeout: time.Second},
		Sources: []*source.Source{
			source.New("s1", topicA, expansion.Root(), 3, 1000),
			source.New("s2", topicB, expansion.Root(), 2, 1000),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, runner.RunPublisher(ctx, p, nil))

	received := map[string]int{}
drain:
	for {
		select {
		case msg := <-sub.Incoming():
			if msg == nil {
				continue
			}
			received[string(msg.Payload)]++
		default:
			break drain
		}
	}
	require.Equal(t, 5, len(received), "expected 3+2 distinct payloads, got %v", received)
}

func TestRunPublisherFailsFastWithoutReconnectOnBrokenConnect(t *testing.T) {
	hub := brokertest.NewHub()
	pub := hub.NewClient(nil)
	pub.FailConnect(true)

	topic, err := expansion.Precompile("topic")
	require.NoError(t, err)

	p := scenario.Publisher{
		Client:  pub,
		Options: scenario.ConnectOptions{ConnectTimeout: 50 * time.Millisecond},
		Sources: []*source.Source{source.New("s1", topic, expansion.Root(), 1, 1000)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = runner.RunPublisher(ctx, p, nil)
	require.Error(t, err)
}

// TestRunPublisherAbortsOnBrokerLossWithoutReconnect covers spec.md
// scenario S5: a publisher with no ReconnectInterval must fail once the
// broker connection is lost mid-run.
func TestRunPublisherAbortsOnBrokerLossWithoutReconnect(t *testing.T) {
	hub := brokertest.NewHub()
	pub := hub.NewClient(nil)

	topic, err := expansion.Precompile("topic-a")
	require.NoError(t, err)

	p := scenario.Publisher{
		Client:  pub,
		Options: scenario.ConnectOptions{ConnectTimeout: time.Second},
		// A long-running source keeps the publisher occupied past the
		// point where the connection is dropped.
		Sources: []*source.Source{source.New("s1", topic, expansion.Root(), 1000, 50)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runner.RunPublisher(ctx, p, nil) }()

	time.Sleep(100 * time.Millisecond)
	pub.DropConnection()

	err = <-done
	require.Error(t, err)
}

// TestRunPublisherSurvivesReconnectingBrokerRestart covers spec.md
// scenario S6: a publisher with ReconnectInterval set must not error
// across a broker drop/restore cycle.
func TestRunPublisherSurvivesReconnectingBrokerRestart(t *testing.T) {
	hub := brokertest.NewHub()
	interval := 20 * time.Millisecond
	pub := hub.NewClient(&interval)

	topic, err := expansion.Precompile("topic-a")
	require.NoError(t, err)

	p := scenario.Publisher{
		Client:  pub,
		Options: scenario.ConnectOptions{ConnectTimeout: time.Second, ReconnectInterval: &interval},
		Sources: []*source.Source{source.New("s1", topic, expansion.Root(), 20, 200)},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runner.RunPublisher(ctx, p, nil) }()

	time.Sleep(30 * time.Millisecond)
	pub.DropConnection()

	require.NoError(t, <-done)
}
