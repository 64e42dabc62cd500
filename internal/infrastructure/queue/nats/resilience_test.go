package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"

	"github.com/mismelpoulout/nota/internal/core/domain"
)

func TestClassifyPublishError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{"nil", nil, false, false},
		{"cancelled", context.Canceled, false, false},
		{"deadline", fmt.Errorf("publish: %w", context.DeadlineExceeded), false, false},
		{"no servers", nats.ErrNoServers, true, true},
		{"timeout", fmt.Errorf("publish: %w", nats.ErrTimeout), true, true},
		{"closed", nats.ErrConnectionClosed, true, true},
		{"disconnected", nats.ErrDisconnected, true, true},
		{"draining", nats.ErrConnectionDraining, true, true},
		{"circuit open", gobreaker.ErrOpenState, true, true},
		{"bad subject", nats.ErrBadSubject, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := classifyPublishError(tt.err)
			if class.Retryable != tt.retryable {
				t.Fatalf("Retryable = %v, want %v", class.Retryable, tt.retryable)
			}
			if class.RecordFailure != tt.recordFailure {
				t.Fatalf("RecordFailure = %v, want %v", class.RecordFailure, tt.recordFailure)
			}
		})
	}
}

func TestMarkTemporaryTagsRecoverableFailures(t *testing.T) {
	err := markTemporary(fmt.Errorf("publish: %w", nats.ErrDisconnected))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("disconnected publish should be temporary, got %v", err)
	}

	// Already-tagged errors pass through unchanged.
	tagged := domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("flap"))
	if got := markTemporary(tagged); got != tagged {
		t.Fatalf("tagged error rewrapped: %v", got)
	}

	permanent := markTemporary(nats.ErrBadSubject)
	if domain.IsKind(permanent, domain.ErrTemporary) {
		t.Fatal("bad subject must not be marked temporary")
	}

	if markTemporary(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
