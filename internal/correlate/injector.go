package correlate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quantboard/telemetry/internal/journey"
	"github.com/quantboard/telemetry/internal/shared/id"
)

// Injector wraps outbound business API calls with correlation headers
// and records each call as a child span on the invoking journey
type Injector struct {
	tracer      *resty.Client
	journeys    *journey.Tracer
	portfolioID string
	now         func() time.Time
}

// InjectorOption configures an Injector
type InjectorOption func(*Injector)

// WithPortfolio attaches a business-entity correlation header to every
// call made through the injector
func WithPortfolio(portfolioID string) InjectorOption {
	return func(i *Injector) { i.portfolioID = portfolioID }
}

// WithInjectorClock substitutes the wall clock, for tests
func WithInjectorClock(now func() time.Time) InjectorOption {
	return func(i *Injector) { i.now = now }
}

// NewInjector creates an injector around the given HTTP client
func NewInjector(client *resty.Client, journeys *journey.Tracer, opts ...InjectorOption) *Injector {
	i := &Injector{
		tracer:   client,
		journeys: journeys,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Do executes method url with correlation headers for the given journey
// and records the call as a child span once it settles, on success and
// failure alike. A zero traceID still executes the call; it just cannot
// be attributed.
func (i *Injector) Do(ctx context.Context, traceID id.TraceID, method, url string, body interface{}) (*resty.Response, error) {
	req := i.tracer.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	if traceID != "" {
		req.SetHeader(HeaderTraceID, traceID.String())
		if spanID, ok := i.journeys.JourneySpanID(traceID); ok {
			req.SetHeader(HeaderParentSpanID, spanID.String())
		}
		req.SetHeader(HeaderSession, i.journeys.Session().ID.String())
	}
	if i.portfolioID != "" {
		req.SetHeader(HeaderPortfolio, i.portfolioID)
	}

	start := i.now()
	resp, err := req.Execute(method, url)
	end := i.now()

	i.record(traceID, method, url, resp, err, start, end)
	return resp, err
}

func (i *Injector) record(traceID id.TraceID, method, url string, resp *resty.Response, err error, start, end time.Time) {
	attrs := journey.Attrs{
		"span.type":   "api_call",
		"http.method": method,
		"http.url":    url,
	}
	if err != nil {
		attrs["success"] = false
		attrs["error.name"] = fmt.Sprintf("%T", err)
		attrs["error.message"] = err.Error()
	} else {
		attrs["success"] = resp.IsSuccess()
		attrs["http.status_code"] = resp.StatusCode()
	}

	name := fmt.Sprintf("%s %s", method, url)
	i.journeys.AddJourneySpan(traceID, name, start, end, attrs)
}
