package producer

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError reports that a provider refused the request with HTTP 429.
// The fallback chain uses RetryAfter to decide how long to route around the
// provider.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. A retryAfterSecs of zero or
// less means the provider gave no usable hint; 60s is assumed.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader converts a Retry-After header value into seconds.
// Both header forms are understood: a delay in seconds and an HTTP-date.
// Empty, malformed or already-elapsed values yield 0.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0
		}
		return secs
	}
	if when, err := http.ParseTime(val); err == nil {
		if delay := time.Until(when); delay > 0 {
			return int(delay.Round(time.Second) / time.Second)
		}
	}
	return 0
}
