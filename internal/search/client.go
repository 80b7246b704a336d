// Package search forwards parsed queries to the external smart-search service.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/query"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const searchPath = "/smart-search"

// Result is the product list returned by smart-search. Products are passed
// through untouched.
type Result struct {
	Products []json.RawMessage `json:"products"`
}

// The service has answered with either key over time.
type response struct {
	Products []json.RawMessage `json:"products"`
	Results  []json.RawMessage `json:"results"`
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search failed: %d %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Result]
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[*Result](breakerConfig(), log),
	}
}

func breakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig("smart-search")
	cfg.Excluded = isClientError
	return cfg
}

// isClientError reports a 4xx answer: the service is up and refused this query.
func isClientError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
}

// Search sends q as URL parameters and returns the decoded product list.
func (c *Client) Search(ctx context.Context, q domain.ParsedQuery) (*Result, error) {
	return c.breaker.Execute(func() (*Result, error) {
		return c.do(ctx, q)
	})
}

func (c *Client) do(ctx context.Context, q domain.ParsedQuery) (*Result, error) {
	url := c.baseURL + searchPath + "?" + query.Values(q).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	products := decoded.Products
	if products == nil {
		products = decoded.Results
	}
	if products == nil {
		products = []json.RawMessage{}
	}
	return &Result{Products: products}, nil
}
