package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"
)

// Common errors returned by the executor.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context ends during a
	// retry backoff.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ClassTransient covers timeouts, 5xx responses, and network resets.
	// Transient errors are retried with backoff.
	ClassTransient ErrorClass = "transient"

	// ClassRateLimit covers upstream quota and rate denials (429, 403
	// with a quota reason). Retried, and reported to the quota limiter.
	ClassRateLimit ErrorClass = "rate_limit"

	// ClassPermanent covers other 4xx responses and malformed payloads.
	// Never retried.
	ClassPermanent ErrorClass = "permanent"

	// ClassNotFound covers a 404 for the whole call. Individual IDs
	// missing from an otherwise successful response are not errors.
	ClassNotFound ErrorClass = "not_found"

	// ClassCancelled covers context cancellation and deadlines.
	ClassCancelled ErrorClass = "cancelled"
)

// APIError represents an upstream API error with its classification.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Reason     string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("api %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// quotaReasons are the googleapi error reasons that spend or exceed quota
// rather than indicating a broken request.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// Classify maps an error to its class. A nil error has no class.
func Classify(err error) ErrorClass {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrContextCancelled) {
		return ClassCancelled
	}

	// Pre-classified errors keep their class.
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return classifyStatus(gerr)
	}

	// Malformed payloads are not going to parse better on a retry.
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return ClassPermanent
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return ClassPermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassTransient
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ClassTransient
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ClassTransient
	}

	// Unrecognized transport errors are retried as transient.
	return ClassTransient
}

func classifyStatus(gerr *googleapi.Error) ErrorClass {
	switch {
	case gerr.Code == http.StatusForbidden:
		for _, item := range gerr.Errors {
			if quotaReasons[item.Reason] {
				return ClassRateLimit
			}
		}
		return ClassPermanent
	case gerr.Code == http.StatusTooManyRequests:
		return ClassRateLimit
	case gerr.Code == http.StatusNotFound:
		return ClassNotFound
	case gerr.Code == http.StatusRequestTimeout:
		return ClassTransient
	case gerr.Code >= 500:
		return ClassTransient
	default:
		return ClassPermanent
	}
}

// RetryAfter extracts the upstream's suggested pause from an error.
// Returns 0 when the error carries none.
func RetryAfter(err error) time.Duration {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}

	value := gerr.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// shouldRetry determines if an error class is worth another attempt.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ClassTransient:
		return true
	case ClassRateLimit:
		return true
	default:
		// Permanent, not-found, and cancelled errors never improve
		// with another attempt.
		return false
	}
}
