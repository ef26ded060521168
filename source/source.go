// Package source implements the verifiable message source: a
// parametrised, finite, rate-limited producer of identified MQTT
// messages.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/coregrid/mqttverify/broker"
	"github.com/coregrid/mqttverify/expansion"
)

// Outgoing is one message a Source has produced: a topic (already
// expanded) and a payload.
type Outgoing struct {
	Topic   string
	Payload []byte
}

// Source produces a finite sequence of QoS 0 messages stamped with a
// session id, at a fixed frequency, until total_count messages have
// been emitted. It is consumed exactly once; Messages is not
// restartable.
type Source struct {
	SessionID   string
	Topic       *expansion.Template
	Scope       *expansion.Scope
	TotalCount  int
	FrequencyHz float64
}

// New returns a Source for the given session, topic template (already
// bound to scope), total message count, and frequency in Hz.
func New(sessionID string, topic *expansion.Template, scope *expansion.Scope, totalCount int, frequencyHz float64) *Source {
	return &Source{
		SessionID:   sessionID,
		Topic:       topic,
		Scope:       scope,
		TotalCount:  totalCount,
		FrequencyHz: frequencyHz,
	}
}

// tickInterval returns 1_000_000/frequency_hz microseconds, truncated,
// as a time.Duration. Tick drift is acceptable: a ticker is used, not a
// deadline recomputed from a fixed start time.
func (s *Source) tickInterval() time.Duration {
	micros := int64(1_000_000 / s.FrequencyHz)
	return time.Duration(micros) * time.Microsecond
}

// Messages starts the source and returns a channel of produced
// messages, closed once total_count messages have been emitted or ctx
// is done. An error evaluating the topic template is reported on errs
// (buffered, capacity 1) and closes out without further sends.
//
// A tick that fires after the sequence has already terminated (i.e.
// after the channel has been closed) is simply dropped by virtue of
// the ticker being stopped before the goroutine returns.
func (s *Source) Messages(ctx context.Context) (<-chan Outgoing, <-chan error) {
	out := make(chan Outgoing)
	errs := make(chan error, 1)

	go func() {
		defer close(out)

		if s.TotalCount <= 0 {
			return
		}

		ticker := time.NewTicker(s.tickInterval())
		defer ticker.Stop()

		seqNo := 0
		for seqNo < s.TotalCount {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				seqNo++

				topic, err := s.Topic.Evaluate(s.Scope)
				if err != nil {
					errs <- fmt.Errorf("evaluating topic for session %s: %w", s.SessionID, err)
					return
				}

				payload := fmt.Sprintf("%s:%d/%d", s.SessionID, seqNo, s.TotalCount)

				select {
				case out <- Outgoing{Topic: topic, Payload: []byte(payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errs
}

// ToBrokerMessage adapts an Outgoing message for publication.
func (o Outgoing) ToBrokerMessage() *broker.Message {
	return &broker.Message{Topic: o.Topic, Payload: o.Payload}
}
