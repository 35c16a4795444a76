// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps a server-supplied Retry-After delay.
var MaxRetryAfter = time.Minute

const defaultMaxRetries = 3

// retryable reports whether a status code means "try again later".
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) and 503 (Service Unavailable). The delay is the server's
// Retry-After value when it sends one in seconds (capped at MaxRetryAfter),
// otherwise exponential backoff from RetryBaseDelay: 2 s, 4 s, 8 s.
//
// When maxRetries is 0 the default (3) is used. On each retryable response
// the body is drained and closed before sleeping. If the context is
// cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting retries the last response is returned so the caller can
// inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := retryDelay(resp.Header.Get("Retry-After"), attempt)
		slog.Debug("retrying request",
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"backoff", backoff,
			"attempt", attempt+1,
			"max_retries", maxRetries,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// retryDelay returns the Retry-After delay when header holds a positive
// number of seconds, else the exponential backoff for attempt.
func retryDelay(header string, attempt int) time.Duration {
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		d := time.Duration(secs) * time.Second
		if d > MaxRetryAfter {
			d = MaxRetryAfter
		}
		return d
	}
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}
