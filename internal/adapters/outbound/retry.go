// Package outbound holds the retry loop shared by clients of third-party HTTP APIs.
package outbound

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"estate_reviews/internal/adapters/observability"
)

var (
	ErrNotFound     = errors.New("outbound: not found")
	ErrUnauthorized = errors.New("outbound: unauthorized")
	ErrForbidden    = errors.New("outbound: forbidden")
)

// Caller performs rate limited requests against one remote service.
type Caller struct {
	Service  string
	HC       *http.Client
	Limiter  *rate.Limiter
	Attempts int
}

func NewCaller(service string, timeout time.Duration, rps float64, burst int) *Caller {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 1
	}
	return &Caller{
		Service:  service,
		HC:       &http.Client{Timeout: timeout},
		Limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		Attempts: 4,
	}
}

// Do sends the request built by build and returns the body of a 2xx response.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
// build is called once per attempt so request bodies are fresh.
func (c *Caller) Do(ctx context.Context, endpoint string, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := c.HC.Do(req)
		if err != nil {
			observability.ObserveExternal(c.Service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < attempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal(c.Service, endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			return b, err

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return nil, ErrUnauthorized

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrForbidden

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%s: remote %d", c.Service, resp.StatusCode)
			if i < attempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%s: bad status %d: %s", c.Service, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
