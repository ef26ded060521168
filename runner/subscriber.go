package runner

import (
	"context"
	"log/slog"

	"github.com/coregrid/mqttverify/analyzer"
	"github.com/coregrid/mqttverify/scenario"
	"github.com/coregrid/mqttverify/verifyerr"
)

// RunSubscriber drives subscriber s end-to-end: arm resubscription,
// connect, drain the incoming stream through the analyzer, then
// disconnect. It implements spec.md §4.7 literally, including the
// invariant that the on-connected hook is registered before the first
// connect so every (re)connection re-subscribes. logger may be nil.
func RunSubscriber(ctx context.Context, s scenario.Subscriber, logger *slog.Logger) error {
	logger = ensureLogger(logger)

	subErrs := make(chan error, 1)

	s.Client.OnConnected(func() {
		if err := s.Client.Subscribe(ctx, s.Topics, subscribeQoS); err != nil {
			select {
			case subErrs <- err:
			default:
			}
			return
		}
		logger.Debug("subscribed", "topics", s.Topics)
	})

	if err := connectWithBudget(ctx, s.Client, s.Options.ConnectTimeout); err != nil {
		return &verifyerr.MqttConnectError{Err: err}
	}

	sink := s.Sinks[0]
	incoming := s.Client.Incoming()
	lost := s.Client.Lost()

	for {
		select {
		case err := <-subErrs:
			return &verifyerr.MqttSubscribeError{Err: err}

		case err, ok := <-lost:
			if ok && err != nil {
				return &verifyerr.MqttConnectError{Err: err}
			}

		case msg, ok := <-incoming:
			if !ok {
				return nil
			}
			if msg == nil {
				// Sentinel empty: connection blip the client already
				// buffered as an event. Keep consuming.
				continue
			}

			verdict, err := sink.Analyze(msg)
			if err != nil {
				return err
			}
			if verdict == analyzer.Done {
				if err := s.Client.DisconnectAfter(ctx, disconnectGrace); err != nil {
					return &verifyerr.MqttDisconnectError{Err: err}
				}
				return nil
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
