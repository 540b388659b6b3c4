package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/quantboard/telemetry/internal/infrastructure/resilience"
	"github.com/quantboard/telemetry/internal/shared/types"
)

// HTTPSender delivers batches to the ingestion endpoint over HTTP with
// retries, rate limiting, and a circuit breaker
type HTTPSender struct {
	client   *resty.Client
	final    *resty.Client
	breaker  *resilience.Breaker
	limiter  *rate.Limiter
	endpoint string
}

// SenderOption configures an HTTPSender
type SenderOption func(*HTTPSender)

// WithRateLimit bounds delivery to rps requests per second
func WithRateLimit(rps float64) SenderOption {
	return func(s *HTTPSender) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

// NewHTTPSender creates a sender targeting the given ingestion URL
func NewHTTPSender(endpoint string, opts ...SenderOption) *HTTPSender {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	// The RoundTripper wrapper routes requests through retryClient.Do,
	// where the retry policy lives; the bare transport would skip it.
	client := resty.New().
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "quantboard-telemetry/1.0").
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})

	// The teardown client makes exactly one short attempt; retries would
	// outlive the dying page context.
	final := resty.New().
		SetTimeout(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "quantboard-telemetry/1.0")

	breaker := resilience.New("telemetry-ingest", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	s := &HTTPSender{
		client:   client,
		final:    final,
		breaker:  breaker,
		limiter:  rate.NewLimiter(rate.Inf, 0),
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers one batch on the normal path
func (s *HTTPSender) Send(ctx context.Context, req types.IngestRequest) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		resp, err := s.client.R().
			SetContext(ctx).
			SetBody(req).
			Post(s.endpoint)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("ingest responded %d", resp.StatusCode())
		}
		return nil, nil
	})
	return err
}

// SendFinal makes one synchronous best-effort attempt, bypassing the
// breaker: during teardown there is no later attempt to protect
func (s *HTTPSender) SendFinal(req types.IngestRequest) error {
	resp, err := s.final.R().
		SetBody(req).
		Post(s.endpoint)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ingest responded %d", resp.StatusCode())
	}
	return nil
}
