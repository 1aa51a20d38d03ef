package throttle

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// NewRoundTripper returns an http.RoundTripper that throttles outbound
// requests using a token bucket rate limiter and honours the server's
// Retry-After on 429 and 503 replies. logFn lazily resolves the logger at
// request time, making option ordering irrelevant; a nil-returning logFn
// silences the throttle.
func NewRoundTripper(cfg Config, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", cfg.RPS, cfg.Burst, ErrMustNotBeZero)
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if next == nil {
		next = http.DefaultTransport
	}
	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	t := &throttle{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:     cfg,
		next:    next,
		logFn:   logFn,
		now:     time.Now,
	}

	return t, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	logger := t.logFn()

	if err := t.waitBackoff(ctx, logger); err != nil {
		return nil, err
	}

	var waited time.Duration
	if logger != nil && !t.limiter.Allow() {
		logger.Info("throttle tokens exhausted", "rate", t.cfg.RPS, "burst", t.cfg.Burst, "path", r.URL.Path)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "rate", t.cfg.RPS, "burst", t.cfg.Burst)
		}()
	}

	start := time.Now()

	err := t.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	resp, err := t.next.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		if d := t.retryAfter(resp.Header.Get("Retry-After")); d > 0 {
			t.pause(d)
			if logger != nil {
				logger.Info("server requested back-off", "status", resp.StatusCode, "pause", d.String(), "path", r.URL.Path)
			}
		}
	}

	return resp, nil
}

// waitBackoff blocks until any server requested pause has elapsed.
func (t *throttle) waitBackoff(ctx context.Context, logger *slog.Logger) error {
	t.mu.Lock()
	d := t.pauseUntil.Sub(t.now())
	t.mu.Unlock()

	if d <= 0 {
		return nil
	}

	if logger != nil {
		logger.Info("throttle backing off", "remaining", d.String())
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w during back-off: %w", ErrContextEnded, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (t *throttle) pause(d time.Duration) {
	until := t.now().Add(d)

	t.mu.Lock()
	if until.After(t.pauseUntil) {
		t.pauseUntil = until
	}
	t.mu.Unlock()
}

// retryAfter parses delay-seconds or an HTTP date, capped at MaxBackoff.
func (t *throttle) retryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}

	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(t.now())
	}

	return min(d, t.cfg.MaxBackoff)
}
