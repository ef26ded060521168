// Package verifyerr defines the error taxonomy surfaced by the scenario
// engine: one type per failure kind, each wrapping an underlying cause
// where one exists so callers can use errors.Is/errors.As instead of
// string matching.
package verifyerr

import "fmt"

// MalformedParameterError is returned when a --parameter flag value
// lacks the "key=value" separator.
type MalformedParameterError struct {
	Raw string
}

func (e *MalformedParameterError) Error() string {
	return fmt.Sprintf("malformed parameter %q: expected key=value", e.Raw)
}

// MalformedValueError is returned when a template contains an unmatched
// "{{".
type MalformedValueError struct {
	Value string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed value %q: unterminated {{", e.Value)
}

// MalformedExpressionError is returned when the body of a template hole
// fails to parse as an expression.
type MalformedExpressionError struct {
	Value string
	Err   error
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("malformed expression in value %q: %s", e.Value, e.Err)
}

func (e *MalformedExpressionError) Unwrap() error { return e.Err }

// SourceTimerError is returned when a source's tick timer fails.
type SourceTimerError struct {
	Err error
}

func (e *SourceTimerError) Error() string { return fmt.Sprintf("timer error: %s", e.Err) }
func (e *SourceTimerError) Unwrap() error { return e.Err }

// MqttConnectError is returned when the initial connect budget elapses
// without a successful connection, or when a client without
// reconnection armed reports a terminal connection loss.
type MqttConnectError struct {
	Err error
}

func (e *MqttConnectError) Error() string { return fmt.Sprintf("connect error: %s", e.Err) }
func (e *MqttConnectError) Unwrap() error { return e.Err }

// MqttDisconnectError is returned when a graceful disconnect fails.
type MqttDisconnectError struct {
	Err error
}

func (e *MqttDisconnectError) Error() string { return fmt.Sprintf("disconnect error: %s", e.Err) }
func (e *MqttDisconnectError) Unwrap() error { return e.Err }

// MqttPublishError is returned when a publish fails outside of
// reconnect mode (where such failures are swallowed instead).
type MqttPublishError struct {
	Err error
}

func (e *MqttPublishError) Error() string { return fmt.Sprintf("publish error: %s", e.Err) }
func (e *MqttPublishError) Unwrap() error { return e.Err }

// MqttSubscribeError is returned when a subscribe request fails in a
// way the local policy does not tolerate.
type MqttSubscribeError struct {
	Err error
}

func (e *MqttSubscribeError) Error() string { return fmt.Sprintf("subscribe error: %s", e.Err) }
func (e *MqttSubscribeError) Unwrap() error { return e.Err }

// VerificationFailure is returned when an analyzer renders a negative
// verdict over a received message stream.
type VerificationFailure struct {
	Reason string
}

func (e *VerificationFailure) Error() string { return fmt.Sprintf("verification failed: %s", e.Reason) }
