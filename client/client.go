package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/gdata/auth"
	"github.com/adamwoolhether/gdata/client/throttle"
	"github.com/adamwoolhether/gdata/client/transport"
	"github.com/adamwoolhether/gdata/element"
	"github.com/adamwoolhether/gdata/internal/validate"
	"github.com/adamwoolhether/gdata/uri"
)

// Client runs GData requests through a RoundTripper chain. Redirects are
// never followed by the underlying *http.Client; Do decides.
type Client struct {
	c      *http.Client
	logger *slog.Logger
	tracer trace.Tracer
	cfg    Config
	base   *uri.URI
	tokens *auth.Store
}

func Build(optFns ...Option) (*Client, error) {
	opts := options{cfg: DefaultConfig()}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	cfg := opts.cfg.withDefaults()
	if err := validate.Check(cfg); err != nil {
		return nil, fmt.Errorf("validating client config: %w", err)
	}

	base, err := baseURI(cfg)
	if err != nil {
		return nil, err
	}

	client := &Client{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer(tracerName),
		cfg:    cfg,
		base:   base,
		tokens: auth.NewStore(),
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.store != nil {
		client.tokens = opts.store
	}
	for _, t := range opts.tokens {
		client.tokens.Add(t)
	}

	hc := &http.Client{}
	if opts.client != nil {
		cpy := *opts.client
		hc = &cpy
	}
	if cfg.Timeout > 0 {
		hc.Timeout = time.Duration(cfg.Timeout)
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	var rt http.RoundTripper
	switch {
	case opts.rt != nil:
		rt = opts.rt
	case hc.Transport != nil:
		rt = hc.Transport
	default:
		rt = transport.Network(
			transport.WithConnectTimeout(time.Duration(cfg.ConnectTimeout)),
			transport.WithReadTimeout(time.Duration(cfg.ReadTimeout)),
		)
	}
	rt = userAgent{value: cfg.userAgent(), base: rt}
	if cfg.Throttle.RPS > 0 || cfg.Throttle.Burst > 0 {
		throttled, err := throttle.NewRoundTripper(cfg.Throttle.throttle(), func() *slog.Logger { return client.logger }, rt)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		rt = throttled
	}
	hc.Transport = rt
	client.c = hc

	return client, nil
}

func baseURI(cfg Config) (*uri.URI, error) {
	if cfg.Host == "" {
		return &uri.URI{Scheme: cfg.Scheme}, nil
	}

	u, err := uri.Parse(cfg.Scheme + "://" + cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parsing default host: %w", err)
	}

	return u, nil
}

func (c Config) userAgent() string {
	const lib = "gdata-go/1.0"

	switch {
	case c.UserAgent != "":
		return c.UserAgent
	case c.Source != "":
		return c.Source + " " + lib
	default:
		return lib
	}
}

// Config returns the client's resolved configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Tokens returns the client's token store.
func (c *Client) Tokens() *auth.Store {
	return c.tokens
}

// HTTPClient returns the underlying client, which never follows redirects.
func (c *Client) HTTPClient() *http.Client {
	return c.c
}

// Request builds a request for target, a URI string that may be relative
// to the client's default host. Query parameters are merged, default and
// per-request headers set, the body attached, the request authorized with
// the explicit token or the store's match for the completed target, and
// If-Match set from WithIfMatch or, for PUT, PATCH and DELETE, from the
// entity's ETag.
func (c *Client) Request(ctx context.Context, method, target string, optFns ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range optFns {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	u, err := uri.Parse(target)
	if err != nil {
		return nil, err
	}
	if settings.query != nil {
		if err := settings.query.Apply(u); err != nil {
			return nil, fmt.Errorf("applying query: %w", err)
		}
	}

	parts := settings.parts
	if settings.entity != nil {
		data, err := element.Marshal(settings.entity)
		if err != nil {
			return nil, fmt.Errorf("encoding entity: %w", err)
		}
		parts = append([]Part{BytesPart(ContentTypeAtom, data)}, parts...)
	}
	body := assemble(parts)

	var reader io.Reader
	if body != nil {
		reader = body.open()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	c.base.ModifyRequest(req)
	if req.URL.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoHost, target)
	}

	contentType := ContentTypeAtom
	if body != nil {
		req.ContentLength = body.length
		req.GetBody = nil
		if body.replayable {
			req.GetBody = func() (io.ReadCloser, error) {
				return io.NopCloser(body.open()), nil
			}
		}
		contentType = body.contentType
	}
	if settings.contentType != "" {
		contentType = settings.contentType
	}
	req.Header.Set("Content-Type", contentType)

	req.Header.Set(headerVersion, c.cfg.APIVersion)
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, vs := range settings.headers {
		req.Header[k] = append([]string(nil), vs...)
	}

	tok := settings.token
	if tok == nil {
		completed, err := uri.Parse(req.URL.String())
		if err != nil {
			return nil, err
		}
		tok = c.tokens.Find(completed)
	}
	if err := tok.Authorize(req); err != nil {
		return nil, fmt.Errorf("authorizing request: %w", err)
	}

	switch {
	case settings.noIfMatch:
		req.Header.Del("If-Match")
	case settings.ifMatch != nil:
		req.Header.Set("If-Match", *settings.ifMatch)
	case conditional(method):
		if et, ok := settings.entity.(interface{ EntityTag() string }); ok && et.EntityTag() != "" {
			req.Header.Set("If-Match", et.EntityTag())
		}
	}

	return req, nil
}

func conditional(method string) bool {
	return method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

// Do dispatches req and classifies the reply. Any non-2xx yields a
// [*StatusError]; transport failures wrap ErrServerError. With
// WithDestination the body is parsed into the destination and closed,
// otherwise the caller owns the returned body.
func (c *Client) Do(req *http.Request, optFns ...DoOption) (*http.Response, error) {
	var settings doOpts
	for _, opt := range optFns {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	ctx, span := c.tracer.Start(req.Context(), spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("url", req.URL.Redacted()),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.dispatch(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("%w: %w", ErrServerError, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("request dispatched", "method", req.Method, "url", req.URL.Redacted(), "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := c.statusError(resp)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if settings.dest == nil {
		return resp, nil
	}

	defer c.discard(resp)

	if err := element.Decode(resp.Body, settings.dest); err != nil {
		return resp, fmt.Errorf("decoding body: %w", err)
	}

	return resp, nil
}

// dispatch sends req, following up to RedirectLimit redirects when the body
// can be replayed.
func (c *Client) dispatch(req *http.Request) (*http.Response, error) {
	resp, err := c.c.Do(req)

	for hops := 0; err == nil && hops < c.cfg.RedirectLimit && followable(resp.StatusCode); hops++ {
		next, ok := redirected(req, resp.Header.Get("Location"))
		if !ok {
			break
		}

		c.discard(resp)
		c.logger.Debug("following redirect", "from", req.URL.Redacted(), "to", next.URL.Redacted(), "hop", hops+1)

		req = next
		resp, err = c.c.Do(req)
	}

	return resp, err
}

func followable(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}

	return false
}

// redirected clones req onto location. Query parameters such as
// gsessionid travel in the location itself.
func redirected(req *http.Request, location string) (*http.Request, bool) {
	if location == "" {
		return nil, false
	}

	u, err := req.URL.Parse(location)
	if err != nil {
		return nil, false
	}

	next := req.Clone(req.Context())
	next.URL = u
	next.Host = u.Host

	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, false
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, false
		}
		next.Body = body
	}

	return next, true
}

// statusError reads a bounded prefix of the body and closes it.
func (c *Client) statusError(resp *http.Response) error {
	defer c.discard(resp)

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		b = []byte("unable to read body")
	}

	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}

	return &StatusError{
		StatusCode: resp.StatusCode,
		Reason:     reason,
		Body:       string(b),
		Header:     resp.Header,
		ETag:       resp.Header.Get("ETag"),
		Location:   resp.Header.Get("Location"),
		Err:        classify(resp.StatusCode),
	}
}

// discard drains and closes a response body.
func (c *Client) discard(resp *http.Response) {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		c.logger.Error("failed to discard unused body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		c.logger.Error("failed to close response body", "error", err)
	}
}
