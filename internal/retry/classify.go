package retry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrorClass is the closed taxonomy of upstream failures.
type ErrorClass string

const (
	// ClassTransient covers timeouts, 5xx and connection resets.
	ClassTransient ErrorClass = "transient"
	// ClassRateLimited covers 429s and provider throttle errors.
	ClassRateLimited ErrorClass = "rate_limited"
	// ClassAuth covers bad keys, malformed addresses and other 4xx.
	ClassAuth ErrorClass = "auth"
	// ClassMalformed covers unexpected response shapes.
	ClassMalformed ErrorClass = "malformed"
)

// Retryable reports whether errors of this class are worth another attempt.
func (c ErrorClass) Retryable() bool {
	return c == ClassTransient || c == ClassRateLimited
}

// Classified is implemented by provider errors that already know their class.
// Takes priority over structural inspection.
type Classified interface {
	ErrorClass() ErrorClass
}

// HTTPError carries an upstream HTTP status plus an optional Retry-After
// hint. Collectors return it from their request helpers so classification
// stays structural.
type HTTPError struct {
	Status    int
	Body      string
	RetryHint time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// ErrorClass maps the status code onto the taxonomy.
func (e *HTTPError) ErrorClass() ErrorClass {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return ClassRateLimited
	case e.Status >= 500:
		return ClassTransient
	case e.Status >= 400:
		return ClassAuth
	}
	return ClassTransient
}

// RetryAfter returns the provider-suggested delay, zero if none.
func (e *HTTPError) RetryAfter() time.Duration {
	return e.RetryHint
}

// Classify assigns an error its class. Unknown errors default to transient:
// a provider hiccup we cannot name is still worth one more attempt.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassTransient
	}

	var classified Classified
	if errors.As(err, &classified) {
		return classified.ErrorClass()
	}

	if errors.Is(err, context.Canceled) {
		return ClassAuth // caller gave up, never retry
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return ClassMalformed
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return ClassMalformed
	}

	return ClassTransient
}
