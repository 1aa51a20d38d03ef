package throttle

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// DefaultMaxBackoff caps how long a Retry-After header can pause the
// transport.
const DefaultMaxBackoff = time.Minute

// Config sets the request rate, burst capacity and the ceiling on server
// requested back-off.
type Config struct {
	RPS        int           `toml:"rps" validate:"gte=0"`
	Burst      int           `toml:"burst" validate:"gte=0"`
	MaxBackoff time.Duration `toml:"max_backoff" validate:"gte=0"`
}

// Enabled reports whether the config asks for throttling at all.
func (c Config) Enabled() bool {
	return c.RPS > 0 || c.Burst > 0
}

// throttle is an http.RoundTripper, using the time/rate token bucket
// limiter to restrict outbound calls. A 429 or 503 reply pauses every
// later request until the server's Retry-After has passed.
type throttle struct {
	limiter    *rate.Limiter
	cfg        Config
	next       http.RoundTripper
	logFn      func() *slog.Logger
	now        func() time.Time
	mu         sync.Mutex
	pauseUntil time.Time
}
