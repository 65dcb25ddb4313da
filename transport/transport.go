// Package transport POSTs signed MWS query calls and owns the retry policy:
// 500 and 503 responses are retried with a 1s, 3s, 9s backoff, anything else
// is handed back as a Response.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/smithy-go/logging"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/internal/wire"
	"github.com/thomasdesr/mwspay/mwsapi"
)

const maxResponseBytes = 10 << 20

type Transport struct {
	client    *http.Client
	userAgent string

	maxRetries int
	backoff    retry.BackoffDelayer
	sleep      func(context.Context, time.Duration) error

	logger   logging.Logger
	observer Observer
}

type Option func(*Transport) error

// WithRoundTripper sets the http.RoundTripper requests are sent with. nil
// means http.DefaultTransport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *Transport) error {
		t.client.Transport = rt
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(t *Transport) error {
		t.userAgent = ua
		return nil
	}
}

// WithMaxRetries sets how many times a 500 or 503 is retried, between 0 and
// MaxRetryCeiling.
func WithMaxRetries(n int) Option {
	return func(t *Transport) error {
		if n < 0 || n > MaxRetryCeiling {
			return fmt.Errorf("max retries must be between 0 and %d, got %d", MaxRetryCeiling, n)
		}
		t.maxRetries = n
		return nil
	}
}

func WithBackoff(b retry.BackoffDelayer) Option {
	return func(t *Transport) error {
		if b == nil {
			return errors.New("backoff must not be nil")
		}
		t.backoff = b
		return nil
	}
}

// WithSleep replaces the function used to wait between attempts. It must
// return early with an error when ctx is done.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(t *Transport) error {
		if sleep == nil {
			return errors.New("sleep function must not be nil")
		}
		t.sleep = sleep
		return nil
	}
}

func WithLogger(l logging.Logger) Option {
	return func(t *Transport) error {
		t.logger = l
		return nil
	}
}

func WithObserver(o Observer) Option {
	return func(t *Transport) error {
		t.observer = o
		return nil
	}
}

func New(opts ...Option) (*Transport, error) {
	t := &Transport{
		client:     &http.Client{},
		userAgent:  wire.UserAgent("", ""),
		maxRetries: DefaultMaxRetries,
		backoff:    Backoff{},
		sleep:      sleepContext,
		logger:     logging.Nop{},
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, errorutil.Wrap(err, "applying transport option")
		}
	}

	return t, nil
}

// Post sends body to https://host/path. Non-retryable statuses come back as a
// Response with Success() false. A retryable status that outlives the
// configured retries returns an *Error. Network failures are returned as is
// and are not retried.
func (t *Transport) Post(ctx context.Context, host, path, body string) (*mwsapi.Response, error) {
	url := "https://" + host + path

	for attempt := 1; ; attempt++ {
		resp, err := t.do(ctx, url, body)
		if err != nil {
			t.observe(ctx, Attempt{Number: attempt, Err: err})
			return nil, errorutil.Wrapf(err, "posting to %s", host)
		}

		decision := Classify(resp.StatusCode())
		if decision.Outcome == Done {
			t.observe(ctx, Attempt{Number: attempt, StatusCode: resp.StatusCode(), Decision: decision})
			return resp, nil
		}

		if attempt > t.maxRetries {
			exhausted := &Error{
				Kind:       decision.Kind,
				StatusCode: resp.StatusCode(),
				Attempts:   attempt,
				Response:   resp,
			}
			t.observe(ctx, Attempt{Number: attempt, StatusCode: resp.StatusCode(), Decision: decision, Err: exhausted})
			t.logger.Logf(logging.Warn, "mws %s: giving up after %d attempts (request id %q)", decision.Kind, attempt, resp.RequestID())
			return nil, exhausted
		}

		delay, err := t.backoff.BackoffDelay(attempt, decision.Kind.sentinel())
		if err != nil {
			return nil, errorutil.Wrap(err, "computing backoff")
		}

		t.observe(ctx, Attempt{Number: attempt, StatusCode: resp.StatusCode(), Decision: decision, Delay: delay})
		t.logger.Logf(logging.Warn, "mws %s on attempt %d, retrying in %s", decision.Kind, attempt, delay)

		if err := t.sleep(ctx, delay); err != nil {
			return nil, errorutil.Wrap(err, "waiting to retry")
		}
	}
}

func (t *Transport) do(ctx context.Context, url, body string) (*mwsapi.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, errorutil.Wrap(err, "creating request")
	}

	wire.SetHeaders(req.Header, t.userAgent)
	req.Header.Set("Content-Type", wire.FormEncoded)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := wire.ReadBody(resp, maxResponseBytes)
	if err != nil {
		return nil, errorutil.Wrap(err, "reading response")
	}

	return mwsapi.NewResponse(resp.StatusCode, resp.Header, raw), nil
}

func (t *Transport) observe(ctx context.Context, a Attempt) {
	if t.observer != nil {
		t.observer.ObserveAttempt(ctx, a)
	}
}
