// Package runner drives one publisher or one subscriber end-to-end
// against its broker client, implementing spec.md §4.6/§4.7's
// connect/drive/disconnect protocols.
package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/coregrid/mqttverify/broker"
)

// disconnectGrace is the fixed grace period passed to DisconnectAfter
// at the end of a run, per spec.md §4.6/§4.7 step 4.
const disconnectGrace = 3 * time.Second

// publishQoS and subscribeQoS are always 0: spec.md §6 fixes QoS 0 for
// both publish and subscribe.
const publishQoS byte = 0
const subscribeQoS byte = 0

// connectWithBudget calls client.Connect bounded by timeout, per
// spec.md §4.6/§4.7 step 1: connect retries internally until success or
// until the deadline elapses.
func connectWithBudget(ctx context.Context, client broker.Client, timeout time.Duration) error {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Connect(connectCtx)
}

// ensureLogger guards against a nil logger the same way
// StudioLambda-Cosmos/atlas.Atlas.Start guards ops.Logger: callers may
// pass nil, the runner always logs to something.
func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
