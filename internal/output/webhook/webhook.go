package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
)

// Option configures a webhook Output.
type Option func(*Output)

// WithHeaders sets custom HTTP headers sent with every POST.
func WithHeaders(h map[string]string) Option {
	return func(o *Output) { o.headers = h }
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *Output) { o.client.Timeout = d }
}

// Output POSTs results to an HTTP endpoint as JSON documents, one per
// artifact: {"measures": [...]} and {"predictions": [...]}. Retries on 5xx
// with exponential backoff.
type Output struct {
	client  *http.Client
	url     string
	headers map[string]string
}

// New creates a webhook output targeting the given URL.
func New(url string, opts ...Option) *Output {
	o := &Output{
		client: &http.Client{Timeout: defaultTimeout},
		url:    url,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WriteMeasures POSTs the table as one JSON document.
func (o *Output) WriteMeasures(ctx context.Context, tb model.Table) error {
	return o.post(ctx, map[string]any{"measures": output.MeasureRecords(tb)})
}

// WritePredictions POSTs the rows as one JSON document.
func (o *Output) WritePredictions(ctx context.Context, rows []model.Prediction) error {
	return o.post(ctx, map[string]any{"predictions": output.PredictionRecords(rows)})
}

// Close is a no-op; every write is delivered synchronously.
func (o *Output) Close() error {
	return nil
}

func (o *Output) post(ctx context.Context, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}
	return o.postWithRetry(ctx, body)
}

// postWithRetry sends the body via HTTP POST with retry on 5xx.
func (o *Output) postWithRetry(ctx context.Context, body []byte) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range o.headers {
			req.Header.Set(k, v)
		}

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("webhook: HTTP %d", resp.StatusCode)

		// Only retry on 5xx server errors.
		if resp.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}
