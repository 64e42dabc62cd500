package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mismelpoulout/nota/internal/core/domain"
	"github.com/mismelpoulout/nota/internal/infrastructure/resilience"
)

// Client queries a Bing-compatible web search API. Requests go through the
// shared resilience executor so a flaky search backend trips its own
// breaker without affecting the other tiers.
type Client struct {
	endpoint   string
	apiKey     string
	market     string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Endpoint string
	Market   string
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(apiKey string, options Options) *Client {
	endpoint := strings.TrimRight(options.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://api.bing.microsoft.com/v7.0/search"
	}
	market := options.Market
	if market == "" {
		market = "es-ES"
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		market:     market,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.Executor,
	}
}

func (c *Client) SearchWeb(ctx context.Context, query string, count int) ([]domain.WebHit, error) {
	if count <= 0 {
		count = 8
	}

	var hits []domain.WebHit
	call := func(ctx context.Context) error {
		var innerErr error
		hits, innerErr = c.search(ctx, query, count)
		return innerErr
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "websearch", call, classifySearchError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrSourceUnavailable, "web search", err)
	}
	return hits, nil
}

func (c *Client) search(ctx context.Context, query string, count int) ([]domain.WebHit, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("mkt", c.market)
	params.Set("responseFilter", "Webpages")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &statusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]domain.WebHit, 0, len(payload.WebPages.Value))
	for _, v := range payload.WebPages.Value {
		if v.URL == "" {
			continue
		}
		hits = append(hits, domain.WebHit{Name: v.Name, URL: v.URL, Snippet: v.Snippet})
	}
	return hits, nil
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search status %d", e.StatusCode)
	}
	return fmt.Sprintf("search status %d: %s", e.StatusCode, e.Body)
}

func classifySearchError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// Nop is the searcher used when no API key is configured. Web tiers then
// contribute nothing and runs settle on local evidence alone.
type Nop struct{}

func (Nop) SearchWeb(context.Context, string, int) ([]domain.WebHit, error) {
	return nil, nil
}
