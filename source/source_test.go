package source_test

import (
	"context"
	"testing"
	"time"

	"github.com/coregrid/mqttverify/expansion"
	"github.com/coregrid/mqttverify/source"
	"github.com/stretchr/testify/require"
)

func TestMessagesProducesExactSequenceInOrder(t *testing.T) {
	topic, err := expansion.Precompile("testo")
	require.NoError(t, err)

	src := source.New("id", topic, expansion.Root(), 2, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, errs := src.Messages(ctx)

	first := <-out
	require.Equal(t, "id:1/2", string(first.Payload))
	require.Equal(t, "testo", first.Topic)

	second := <-out
	require.Equal(t, "id:2/2", string(second.Payload))

	_, ok := <-out
	require.False(t, ok, "source must terminate after total_count messages")

	select {
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	default:
	}
}

func TestMessagesRespectsContextCancellation(t *testing.T) {
	topic, err := expansion.Precompile("testo")
	require.NoError(t, err)

	src := source.New("id", topic, expansion.Root(), 1000, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	out, _ := src.Messages(ctx)

	<-out
	cancel()

	_, ok := <-out
	require.False(t, ok)
}

func TestMessagesWithZeroTotalCountTerminatesImmediately(t *testing.T) {
	topic, err := expansion.Precompile("testo")
	require.NoError(t, err)

	src := source.New("id", topic, expansion.Root(), 0, 1000)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, _ := src.Messages(ctx)
	_, ok := <-out
	require.False(t, ok)
}
