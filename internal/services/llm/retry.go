package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// defaultRetryDelay is the pause before retrying a failed call
	defaultRetryDelay = 2 * time.Second

	// maxRateLimitDelay caps an API-suggested retry delay
	maxRateLimitDelay = 90 * time.Second
)

// IsRateLimitError reports whether err is a provider quota or 429 error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error.
// Returns 0 if no delay is found.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// newBackoff retries up to maxRetries times. Rate limit errors wait for the
// delay the API asked for; anything else waits the constant delay. lastErr
// is read when the next delay is computed.
func newBackoff(maxRetries uint64, lastErr *error) retry.Backoff {
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		if lastErr != nil && IsRateLimitError(*lastErr) {
			if d := ExtractRetryDelay(*lastErr); d > 0 {
				if d > maxRateLimitDelay {
					d = maxRateLimitDelay
				}
				return d, false
			}
		}
		return defaultRetryDelay, false
	})
	return retry.WithMaxRetries(maxRetries, next)
}
