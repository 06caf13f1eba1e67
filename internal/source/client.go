package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "uniload/1.0"

// maxErrorBody bounds the response body kept on a StatusError
const maxErrorBody = 512

type Options struct {
	// BaseURL is the search endpoint, queried with ?country=<name>
	BaseURL  string
	Timeout  time.Duration
	Attempts uint
	Backoff  time.Duration
	// RPS spaces consecutive requests; zero disables pacing
	RPS float64
}

// Client fetches university records from the directory API
type Client struct {
	http     *resty.Client
	baseURL  string
	attempts uint
	backoff  time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	attempts := opts.Attempts
	if attempts == 0 {
		attempts = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	return &Client{
		http:     client,
		baseURL:  opts.BaseURL,
		attempts: attempts,
		backoff:  opts.Backoff,
		limiter:  limiter,
		logger:   logger.Named("source"),
	}
}

// Fetch returns every record the directory holds for country.
// Transport errors, 5xx and 429 responses are retried with exponential backoff.
func (c *Client) Fetch(ctx context.Context, country string) ([]RawRecord, error) {
	var records []RawRecord
	err := retry.Do(
		func() error {
			var err error
			records, err = c.fetchOnce(ctx, country)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying fetch",
				zap.String("country", country),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, &FetchError{Country: country, Err: err}
	}
	return records, nil
}

func (c *Client) fetchOnce(ctx context.Context, country string) ([]RawRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("country", country).
		Get(c.baseURL)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		body := res.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: res.StatusCode(), Body: body}
	}

	// only the envelope has to be valid; bad elements are rejected later, one by one
	var elements []json.RawMessage
	if err := json.Unmarshal(res.Body(), &elements); err != nil {
		return nil, errMalformedResponse{err: fmt.Errorf("failed to parse json response: %w", err)}
	}
	records := make([]RawRecord, 0, len(elements))
	for i, el := range elements {
		var rec RawRecord
		if err := json.Unmarshal(el, &rec); err != nil {
			rec.DecodeErr = fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	c.logger.Debug("fetched records",
		zap.String("country", country),
		zap.Int("records", len(records)),
		zap.Duration("elapsed", res.Time()))
	return records, nil
}

type errMalformedResponse struct {
	err error
}

func (e errMalformedResponse) Error() string { return e.err.Error() }
func (e errMalformedResponse) Unwrap() error { return e.err }

// isRetryable leaves cancellation of the caller's context to retry.Context
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var malformed errMalformedResponse
	if errors.As(err, &malformed) {
		return false
	}
	return true
}
