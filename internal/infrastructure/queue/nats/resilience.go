package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/infrastructure/resilience"
)

// transientConnErrors are the client errors a reconnecting connection can
// recover from. Anything else (bad subject, oversize payload) fails the same
// way on every attempt.
var transientConnErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrConnectionDraining,
}

// classifyPublishError maps a failed publish onto the retry and breaker
// policy. Context cancellation means the caller gave up: not retried and not
// held against the breaker.
func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	for _, transient := range transientConnErrors {
		if errors.Is(err, transient) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

// markTemporary tags recoverable publish failures so the HTTP layer answers
// 503 and the client knows the upload is worth repeating.
func markTemporary(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if class := classifyPublishError(err); class.Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
