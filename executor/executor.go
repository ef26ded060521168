// Package executor implements the scenario executor (C8): it launches
// every publisher and subscriber in a scenario concurrently and
// streams each actor's terminal result back as it completes.
package executor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coregrid/mqttverify/runner"
	"github.com/coregrid/mqttverify/scenario"
)

// ActorKind identifies which half of a scenario an Outcome belongs to.
type ActorKind int

const (
	PublisherActor ActorKind = iota
	SubscriberActor
)

// Outcome is one actor's terminal result.
type Outcome struct {
	Kind  ActorKind
	Index int
	Err   error
}

// Run launches one goroutine per publisher and per subscriber in s and
// returns a channel of Outcome, one per actor, delivered in completion
// order rather than input order. The channel is closed once every
// actor has reported. Run does not cancel peers when one actor fails;
// that policy is the caller's to apply via ctx. logger may be nil.
func Run(ctx context.Context, s scenario.Scenario, logger *slog.Logger) <-chan Outcome {
	if logger == nil {
		logger = slog.Default()
	}

	results := make(chan Outcome)

	var wg sync.WaitGroup
	wg.Add(len(s.Publishers) + len(s.Subscribers))

	for i, p := range s.Publishers {
		go func(i int, p scenario.Publisher) {
			defer wg.Done()
			logger.Debug("publisher launching", "index", i)
			err := runner.RunPublisher(ctx, p, logger)
			results <- Outcome{Kind: PublisherActor, Index: i, Err: err}
		}(i, p)
	}

	for i, sub := range s.Subscribers {
		go func(i int, sub scenario.Subscriber) {
			defer wg.Done()
			logger.Debug("subscriber launching", "index", i)
			err := runner.RunSubscriber(ctx, sub, logger)
			results <- Outcome{Kind: SubscriberActor, Index: i, Err: err}
		}(i, sub)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
