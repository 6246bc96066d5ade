package channel

import (
	"context"
	"errors"
)

// SendFunc performs the actual provider call. It returns the provider's
// message id on success.
type SendFunc func(ctx context.Context, address, content, correlationID string) (string, error)

// Adapter is the uniform send/validate contract per channel. The engine
// never talks to a provider except through one of these.
type Adapter interface {
	Channel() string
	Validate(address string) bool
	Send(ctx context.Context, address, content, correlationID string) (string, error)
}

// RetryableError marks a transient provider failure (timeout, rate limit,
// 5xx). Anything not wrapped in it is treated as permanent.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

func NewRetryable(err error) error {
	return &RetryableError{Err: err}
}

// Retryable reports whether a send failure should go through the
// backoff/requeue path.
func Retryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
