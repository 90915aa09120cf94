// Package ratelimit throttles outgoing requests against a backend that
// reports its remaining quota in response headers.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultConcurrency is the number of requests allowed in flight at once
	DefaultConcurrency = 5

	// InitialRemaining is assumed until the first response reports a quota
	InitialRemaining = 300

	// ResetMargin is added to the reported reset delay before retrying
	ResetMargin = 10 * time.Second

	HeaderRemaining = "X-Ratelimit-Remaining"
	HeaderReset     = "X-Ratelimit-Reset"
)

// Doer sends an HTTP request. *http.Client and *Queue both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Queue bounds concurrency and waits out the backend's rate limit window
// when the reported remaining quota gets low.
type Queue struct {
	client      Doer
	sem         chan struct{}
	concurrency int
	sleep       SleepFunc
	log         *zap.Logger

	mu        sync.Mutex
	remaining int
	reset     int
}

// Option configures a Queue
type Option func(*Queue)

// WithConcurrency sets the maximum number of in-flight requests
func WithConcurrency(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.concurrency = n
		}
	}
}

// WithSleep replaces the function used to wait out the rate limit window
func WithSleep(fn SleepFunc) Option {
	return func(q *Queue) {
		if fn != nil {
			q.sleep = fn
		}
	}
}

// WithLogger sets the logger used for throttling events
func WithLogger(log *zap.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.log = log
		}
	}
}

// New wraps client in a rate-limited queue. A nil client uses http.DefaultClient.
func New(client Doer, opts ...Option) *Queue {
	if client == nil {
		client = http.DefaultClient
	}
	q := &Queue{
		client:      client,
		concurrency: DefaultConcurrency,
		sleep:       sleepContext,
		log:         zap.NewNop(),
		remaining:   InitialRemaining,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.sem = make(chan struct{}, q.concurrency)
	return q
}

// Do sends req once a slot is free, sleeping first if the last known quota
// is at or below the concurrency limit. The request's context cancels both
// the wait for a slot and the throttle sleep.
func (q *Queue) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	select {
	case q.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-q.sem }()

	remaining, reset := q.Snapshot()
	if remaining <= q.concurrency {
		wait := time.Duration(reset)*time.Second + ResetMargin
		q.log.Debug("rate limit nearly exhausted, waiting",
			zap.Int("remaining", remaining),
			zap.Duration("wait", wait),
			zap.String("url", req.URL.String()))
		if err := q.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return nil, err
	}
	q.update(resp.Header)
	return resp, nil
}

// Snapshot returns the last reported remaining quota and reset delay in seconds
func (q *Queue) Snapshot() (remaining, reset int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.remaining, q.reset
}

func (q *Queue) update(h http.Header) {
	remaining, errRemaining := strconv.Atoi(h.Get(HeaderRemaining))
	reset, errReset := strconv.Atoi(h.Get(HeaderReset))

	q.mu.Lock()
	defer q.mu.Unlock()
	if errRemaining == nil {
		q.remaining = remaining
	}
	if errReset == nil && reset >= 0 {
		q.reset = reset
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
