package executor_test

import (
	"context"
	"testing"
	"time"

	"github.com/coregrid/mqttverify/analyzer"
	"github.com/coregrid/mqttverify/broker/brokertest"
	"github.com/coregrid/mqttverify/executor"
	"github.com/coregrid/mqttverify/expansion"
	"github.com/coregrid/mqttverify/scenario"
	"github.com/coregrid/mqttverify/source"
	"github.com/stretchr/testify/require"
)

func TestRunYieldsOneOutcomePerActor(t *testing.T) {
	hub := brokertest.NewHub()

	topic, err := expansion.Precompile("topic-a")
	require.NoError(t, err)

	subClient := hub.NewClient(nil)
	pubClient := hub.NewClient(nil)

	sc := scenario.Scenario{
		Publishers: []scenario.Publisher{
			{
				Client:  pubClient,
				Options: scenario.ConnectOptions{ConnectTimeout: time.Second},
				Sources: []*source.Source{source.New("1", topic, expansion.Root(), 2, 1000)},
			},
		},
		Subscribers: []scenario.Subscriber{
			{
				Client:  subClient,
				Options: scenario.ConnectOptions{ConnectTimeout: time.Second},
				Topics:  []string{"topic-a"},
				Sinks:   []analyzer.Analyzer{analyzer.NewCountingAnalyzer(2)},
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	outcomes := make([]executor.Outcome, 0, 2)
	for o := range executor.Run(ctx, sc, nil) {
		outcomes = append(outcomes, o)
	}

	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
	}
}

func TestRunContinuesAfterOneActorFails(t *testing.T) {
	hub := brokertest.NewHub()

	topic, err := expansion.Precompile("topic-a")
	require.NoError(t, err)

	healthyPub := hub.NewClient(nil)
	brokenPub := hub.NewClient(nil)
	brokenPub.FailConnect(true)

	sc := scenario.Scenario{
		Publishers: []scenario.Publisher{
			{
				Client:  healthyPub,
				Options: scenario.ConnectOptions{ConnectTimeout: time.Second},
				Sources: []*source.Source{source.New("1", topic, expansion.Root(), 1, 1000)},
			},
			{
				Client:  brokenPub,
				Options: scenario.ConnectOptions{ConnectTimeout: 50 * time.Millisecond},
				Sources: []*source.Source{source.New("2", topic, expansion.Root(), 1, 1000)},
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var successes, failures int
	for o := range executor.Run(ctx, sc, nil) {
		if o.Err != nil {
			failures++
		} else {
			successes++
		}
	}

	require.Equal(t, 1, successes)
	require.Equal(t, 1, failures)
}
