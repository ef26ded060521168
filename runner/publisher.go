package runner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coregrid/mqttverify/scenario"
	"github.com/coregrid/mqttverify/source"
	"github.com/coregrid/mqttverify/verifyerr"
)

// RunPublisher drives publisher p end-to-end: connect, fan-in its
// sources, publish every produced message, then disconnect. It
// implements spec.md §4.6 literally. logger may be nil.
func RunPublisher(ctx context.Context, p scenario.Publisher, logger *slog.Logger) error {
	logger = ensureLogger(logger)

	if err := connectWithBudget(ctx, p.Client, p.Options.ConnectTimeout); err != nil {
		return &verifyerr.MqttConnectError{Err: err}
	}

	// runCtx is cancelled by the first recorded error so the runner
	// aborts instead of draining the remaining sources.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, srcErrs := fanIn(runCtx, p.Sources)
	reconnecting := p.Options.ReconnectInterval != nil

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
		cancel()
	}

drain:
	for messages != nil || srcErrs != nil {
		select {
		case m, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			wg.Add(1)
			go func(m source.Outgoing) {
				defer wg.Done()
				// Reconnect mode swallows a publish failure: spec.md §9
				// open question (b), the message is dropped, not requeued.
				if err := p.Client.Publish(ctx, m.Topic, m.Payload, publishQoS); err != nil {
					if !reconnecting {
						recordErr(&verifyerr.MqttPublishError{Err: err})
						return
					}
					logger.Debug("publish failed, swallowed in reconnect mode",
						"topic", m.Topic, "payload", string(m.Payload), "error", err)
				}
			}(m)
		case err, ok := <-srcErrs:
			if !ok {
				srcErrs = nil
				continue
			}
			recordErr(err)
		case <-runCtx.Done():
			break drain
		}
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.Client.DisconnectAfter(ctx, disconnectGrace); err != nil {
		return &verifyerr.MqttDisconnectError{Err: err}
	}

	return nil
}

// fanIn merges every source's message sequence into one channel using
// fair select: each source runs its own goroutine blocking on a send
// into the shared channel, so Go's runtime arbitrates fairly among
// simultaneously-ready senders instead of favoring any one source.
// Per-source order is preserved; order across sources is not.
func fanIn(ctx context.Context, sources []*source.Source) (<-chan source.Outgoing, <-chan error) {
	out := make(chan source.Outgoing)
	errs := make(chan error, len(sources))

	var wg sync.WaitGroup
	wg.Add(len(sources))

	for _, s := range sources {
		go func(s *source.Source) {
			defer wg.Done()

			msgs, srcErr := s.Messages(ctx)
			for {
				select {
				case m, ok := <-msgs:
					if !ok {
						// Drain a same-moment error the source may have sent
						// right before closing msgs.
						select {
						case err := <-srcErr:
							if err != nil {
								errs <- err
							}
						default:
						}
						return
					}
					select {
					case out <- m:
					case <-ctx.Done():
						return
					}
				case err := <-srcErr:
					if err != nil {
						errs <- err
					}
				case <-ctx.Done():
					return
				}
			}
		}(s)
	}

	go func() {
		wg.Wait()
		close(out)
		close(errs)
	}()

	return out, errs
}
