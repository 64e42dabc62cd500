package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}

	class := classifyOllamaError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

// ResilientEmbedder wraps the embedder with retry and circuit breaking.
// A permanently failing embedding backend surfaces as ErrEmbeddingUnavailable
// so the engine can drop into degraded single-signal scoring.
type ResilientEmbedder struct {
	inner    *Embedder
	executor *resilience.Executor
}

func NewResilientEmbedder(inner *Embedder, executor *resilience.Executor) *ResilientEmbedder {
	return &ResilientEmbedder{inner: inner, executor: executor}
}

func (e *ResilientEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := e.executor.Execute(ctx, "ollama_embed", func(ctx context.Context) error {
		var innerErr error
		out, innerErr = e.inner.Embed(ctx, texts)
		return innerErr
	}, classifyOllamaError)
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama embed", err)
		}
		return nil, wrapTemporaryIfNeeded("ollama embed", err)
	}
	return out, nil
}

func (e *ResilientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "ollama embed", errors.New("empty embedding result"))
	}
	return vectors[0], nil
}

// ResilientGenerator wraps the generator with retry and circuit breaking.
type ResilientGenerator struct {
	inner    *Generator
	executor *resilience.Executor
}

func NewResilientGenerator(inner *Generator, executor *resilience.Executor) *ResilientGenerator {
	return &ResilientGenerator{inner: inner, executor: executor}
}

func (g *ResilientGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var out string
	err := g.executor.Execute(ctx, "ollama_generate", func(ctx context.Context) error {
		var innerErr error
		out, innerErr = g.inner.Complete(ctx, systemPrompt, userPrompt)
		return innerErr
	}, classifyOllamaError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("ollama generate", err)
	}
	return out, nil
}
