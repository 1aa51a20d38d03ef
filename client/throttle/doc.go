// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound GData requests using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [NewRoundTripper]:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// When the rate limit is exceeded, outbound requests block until a
// token becomes available or the request context is cancelled. When the
// server answers 429 or 503 with a Retry-After header, later requests wait
// out the requested delay, capped by Config.MaxBackoff.
package throttle
