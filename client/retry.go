package client

import (
	"errors"
	"math/rand"
	"time"

	"github.com/freundallein/queued/chassis/codec"
	"github.com/freundallein/queued/chassis/metrics"
	"github.com/freundallein/queued/chassis/schema"
)

// maxBackoffMS caps the jitter window at 10 minutes. Beyond attempt ~20 the
// cap dominates and the backoff stays a flat jittered 10-minute window.
const maxBackoffMS = 600000

// retrier runs an operation up to maxRetries times, sleeping a random
// jittered exponential delay between attempts that failed transiently.
type retrier struct {
	maxRetries int
	sleep      func(time.Duration)
	jitter     func(windowMS int64) int64
}

func newRetrier(maxRetries int) *retrier {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &retrier{
		maxRetries: maxRetries,
		sleep:      time.Sleep,
		jitter:     rand.Int63n,
	}
}

func (r *retrier) do(op func() error) error {
	var err error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == r.maxRetries-1 || !retryable(err) {
			return err
		}
		metrics.RetriesTotal.Inc()
		r.sleep(backoffDelay(attempt, r.jitter))
	}
	return err
}

func backoffDelay(attempt int, jitter func(int64) int64) time.Duration {
	if attempt > 20 {
		attempt = 20
	}
	window := int64(1) << uint(attempt)
	if window > maxBackoffMS {
		window = maxBackoffMS
	}
	return time.Duration(jitter(window)) * time.Millisecond
}

// retryable reserves retries for transient failures: network errors and
// server-side 5xx statuses. Authorization failures, client-request errors,
// malformed URLs and protocol mismatches cannot be fixed by retrying.
func retryable(err error) bool {
	if errors.Is(err, ErrAuthorization) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	var urlErr *badURLError
	if errors.As(err, &urlErr) {
		return false
	}
	var codecErr *codec.Error
	if errors.As(err, &codecErr) {
		return false
	}
	var schemaErr *schema.Error
	if errors.As(err, &schemaErr) {
		return false
	}
	return true
}
