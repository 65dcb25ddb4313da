package transport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/thomasdesr/mwspay/mwsapi"
)

// Outcome is what the retry policy does with one HTTP response.
type Outcome int

const (
	// Done hands the response to the caller, successful or not.
	Done Outcome = iota
	// Retryable waits and tries again while retries remain.
	Retryable
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Retryable:
		return "retryable"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Kind names a retryable failure. It is what callers see once retries are
// exhausted.
type Kind string

const (
	KindInternalServerError Kind = "InternalServerError"
	KindServiceUnavailable  Kind = "ServiceUnavailable_or_RequestThrottled"
)

var (
	ErrInternalServerError = errors.New(string(KindInternalServerError))
	ErrServiceUnavailable  = errors.New(string(KindServiceUnavailable))
)

func (k Kind) sentinel() error {
	switch k {
	case KindInternalServerError:
		return ErrInternalServerError
	case KindServiceUnavailable:
		return ErrServiceUnavailable
	}
	return nil
}

type Decision struct {
	Outcome Outcome
	Kind    Kind
}

// Classify decides how a response with the given status is handled. Only 500
// and 503 are retried; every other status, including 4xx, is returned to the
// caller as a Response.
func Classify(status int) Decision {
	switch status {
	case 500:
		return Decision{Outcome: Retryable, Kind: KindInternalServerError}
	case 503:
		return Decision{Outcome: Retryable, Kind: KindServiceUnavailable}
	default:
		return Decision{Outcome: Done}
	}
}

// Error is returned by Post when a retryable status persists past the last
// allowed retry.
type Error struct {
	Kind       Kind
	StatusCode int
	Attempts   int

	// Response is the last response received.
	Response *mwsapi.Response
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: status %d after %d attempts", e.Kind, e.StatusCode, e.Attempts)
}

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

const (
	// MaxRetryCeiling bounds how many retries a Transport may be configured
	// with.
	MaxRetryCeiling = 3

	DefaultMaxRetries = 3
)

// Backoff waits 3^(n-1) seconds before retry n: 1s, 3s, 9s.
type Backoff struct{}

var _ retry.BackoffDelayer = Backoff{}

func (Backoff) BackoffDelay(attempt int, _ error) (time.Duration, error) {
	if attempt < 1 {
		return 0, fmt.Errorf("invalid retry attempt %d", attempt)
	}
	return time.Duration(math.Pow(3, float64(attempt-1))) * time.Second, nil
}

// Attempt describes one request made by Post, handed to an Observer.
type Attempt struct {
	Number     int
	StatusCode int
	Decision   Decision

	// Delay is the wait before the next attempt, zero when there is none.
	Delay time.Duration
	Err   error
}

type Observer interface {
	ObserveAttempt(ctx context.Context, a Attempt)
}

type ObserverFunc func(ctx context.Context, a Attempt)

func (f ObserverFunc) ObserveAttempt(ctx context.Context, a Attempt) {
	f(ctx, a)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
