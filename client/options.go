package client

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/gdata/auth"
	"github.com/adamwoolhether/gdata/client/throttle"
	"github.com/adamwoolhether/gdata/query"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client *http.Client
	rt     http.RoundTripper
	logger *slog.Logger
	tracer trace.Tracer
	cfg    Config
	store  *auth.Store
	tokens []auth.Token
}

// WithClient supplies the [http.Client] to copy. Its transport becomes the
// base transport unless WithTransport is also given.
func WithClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport,
// e.g. [transport.Echo] or a [transport.Recorder].
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithConfig replaces the whole configuration. Later options still
// override single fields.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		o.cfg = cfg.withDefaults()
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.cfg.Timeout = Duration(d)
		return nil
	}
}

// WithConnectTimeout bounds dialing of the default network transport.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("connect timeout must not be negative")
		}
		o.cfg.ConnectTimeout = Duration(d)
		return nil
	}
}

// WithReadTimeout bounds the wait for response headers on the default
// network transport.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("read timeout must not be negative")
		}
		o.cfg.ReadTimeout = Duration(d)
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.cfg.UserAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.cfg.Throttle.RPS = rps
		o.cfg.Throttle.Burst = burst
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer request spans are started on. The default
// is a no-op tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithAPIVersion sets the GData-Version header value.
func WithAPIVersion(version string) Option {
	return func(o *options) error {
		if version == "" {
			return errors.New("api version must not be empty")
		}
		o.cfg.APIVersion = version
		return nil
	}
}

// WithHost sets the default host, optionally with a port, that relative
// targets resolve against.
func WithHost(host string) Option {
	return func(o *options) error {
		if strings.Contains(host, "/") {
			return fmt.Errorf("host %q must not contain a path", host)
		}
		o.cfg.Host = host
		return nil
	}
}

// WithScheme sets the default scheme, "http" or "https".
func WithScheme(scheme string) Option {
	return func(o *options) error {
		o.cfg.Scheme = scheme
		return nil
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(o *options) error {
		if key == "" {
			return errors.New("header key must not be empty")
		}
		headers := maps.Clone(o.cfg.Headers)
		if headers == nil {
			headers = make(map[string]string)
		}
		headers[key] = value
		o.cfg.Headers = headers
		return nil
	}
}

// WithSource sets the application name sent to the account service.
func WithSource(source string) Option {
	return func(o *options) error {
		o.cfg.Source = source
		return nil
	}
}

// WithAuthEndpoints points the credential flows at other account
// endpoints. Empty fields keep their defaults.
func WithAuthEndpoints(ep auth.Endpoints) Option {
	return func(o *options) error {
		o.cfg.Endpoints = ep.WithDefaults()
		return nil
	}
}

// WithCaptchaBase sets the base CAPTCHA image paths resolve against.
func WithCaptchaBase(base string) Option {
	return func(o *options) error {
		o.cfg.Endpoints.CaptchaBase = base
		return nil
	}
}

// WithStripIDPrefix toggles resolving entry ids against the client's
// host in DeleteEntry.
func WithStripIDPrefix(strip bool) Option {
	return func(o *options) error {
		o.cfg.StripIDPrefix = strip
		return nil
	}
}

// WithRedirectLimit lets Do follow up to n redirects.
func WithRedirectLimit(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("redirect limit must not be negative")
		}
		o.cfg.RedirectLimit = n
		return nil
	}
}

// WithTokenStore shares a token store with the [Client].
func WithTokenStore(store *auth.Store) Option {
	return func(o *options) error {
		if store == nil {
			return errors.New("token store must not be nil")
		}
		o.store = store
		return nil
	}
}

// WithTokens adds tokens to the client's store.
func WithTokens(tokens ...auth.Token) Option {
	return func(o *options) error {
		for _, t := range tokens {
			if t == nil {
				return errors.New("token must not be nil")
			}
		}
		o.tokens = append(o.tokens, tokens...)
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// /////////////////////////////////////////////////////////////////

// DoOption is a functional option for [Client.Do].
type DoOption func(options *doOpts) error

type doOpts struct {
	dest any
}

// WithDestination parses a 2xx body into dest, a pointer to an element
// class such as *atom.Feed. The response body is then consumed and closed.
func WithDestination(dest any) DoOption {
	return func(opts *doOpts) error {
		if dest == nil {
			return errors.New("destination must not be nil")
		}
		opts.dest = dest

		return nil
	}
}

// RequestOption is a functional option for [Client.Request].
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	entity      any
	parts       []Part
	query       *query.Query
	token       auth.Token
	ifMatch     *string
	noIfMatch   bool
	headers     http.Header
	contentType string
}

// WithEntity serializes an element as the Atom body. Combined with
// WithBody the entity becomes the first part of a multipart/related body.
func WithEntity(entity any) RequestOption {
	return func(opts *requestOpts) error {
		if entity == nil {
			return ErrNilEntity
		}
		opts.entity = entity

		return nil
	}
}

// WithBody attaches raw body parts.
func WithBody(parts ...Part) RequestOption {
	return func(opts *requestOpts) error {
		for _, p := range parts {
			if err := p.validate(); err != nil {
				return err
			}
		}
		opts.parts = append(opts.parts, parts...)

		return nil
	}
}

// WithQuery merges q's parameters into the target.
func WithQuery(q *query.Query) RequestOption {
	return func(opts *requestOpts) error {
		opts.query = q

		return nil
	}
}

// WithToken authorizes the request with t instead of the store's match.
func WithToken(t auth.Token) RequestOption {
	return func(opts *requestOpts) error {
		if t == nil {
			return errors.New("token must not be nil")
		}
		opts.token = t

		return nil
	}
}

// WithIfMatch sets If-Match explicitly.
func WithIfMatch(etag string) RequestOption {
	return func(opts *requestOpts) error {
		if etag == "" {
			return errors.New("etag must not be empty")
		}
		opts.ifMatch = &etag
		opts.noIfMatch = false

		return nil
	}
}

// WithoutIfMatch suppresses If-Match, including the one taken from the
// entity's ETag, so the write is unconditional.
func WithoutIfMatch() RequestOption {
	return func(opts *requestOpts) error {
		opts.ifMatch = nil
		opts.noIfMatch = true

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		if opts.headers == nil {
			opts.headers = make(http.Header)
		}
		for k, vs := range headers {
			for _, v := range vs {
				opts.headers.Add(k, v)
			}
		}

		return nil
	}
}

// WithContentType overrides the body's Content-Type.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}

		opts.contentType = contentType

		return nil
	}
}
