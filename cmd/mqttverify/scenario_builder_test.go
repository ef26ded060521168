package main

import (
	"testing"
	"time"

	"github.com/coregrid/mqttverify/broker/brokertest"
	"github.com/stretchr/testify/require"
)

// TestBuildScenarioBindsPublisherName covers spec.md scenario S3's
// first case: with one publisher and --topic {{publisher}}, the single
// source's evaluated topic is "p-1".
func TestBuildScenarioBindsPublisherName(t *testing.T) {
	hub := brokertest.NewHub()
	pub := hub.NewClient(nil)
	sub := hub.NewClient(nil)

	cfg := &Config{
		Publishers:     1,
		FrequencyHz:    1,
		LengthSeconds:  1,
		Topic:          "{{publisher}}",
		InitialTimeout: time.Second,
		Parameters:     map[string]string{},
	}

	sc, err := buildScenario(cfg, pub, sub)
	require.NoError(t, err)

	require.Len(t, sc.Subscribers, 1)
	require.Equal(t, []string{"p-1"}, sc.Subscribers[0].Topics)
}

// TestBuildScenarioExpandsParameter covers S3's second case: with
// --topic {{foo}} --parameter foo=bar, the topic is "bar".
func TestBuildScenarioExpandsParameter(t *testing.T) {
	hub := brokertest.NewHub()
	pub := hub.NewClient(nil)
	sub := hub.NewClient(nil)

	cfg := &Config{
		Publishers:     1,
		FrequencyHz:    1,
		LengthSeconds:  1,
		Topic:          "{{foo}}",
		InitialTimeout: time.Second,
		Parameters:     map[string]string{"foo": "bar"},
	}

	sc, err := buildScenario(cfg, pub, sub)
	require.NoError(t, err)
	require.Equal(t, []string{"bar"}, sc.Subscribers[0].Topics)
}

func TestBuildScenarioDerivesTotalCountByTruncation(t *testing.T) {
	hub := brokertest.NewHub()
	pub := hub.NewClient(nil)
	sub := hub.NewClient(nil)

	cfg := &Config{
		Publishers:     2,
		FrequencyHz:    3,
		LengthSeconds:  2.9,
		Topic:          "1",
		InitialTimeout: time.Second,
		Parameters:     map[string]string{},
	}

	sc, err := buildScenario(cfg, pub, sub)
	require.NoError(t, err)

	require.Len(t, sc.Publishers[0].Sources, 2)
	for _, src := range sc.Publishers[0].Sources {
		require.Equal(t, 8, src.TotalCount) // floor(3 * 2.9) = 8
	}
}
