// Package gdatatest runs an in-memory GData service for tests: Atom
// collections with paging, optimistic concurrency, media and batch
// processing, plus the ClientLogin and AuthSub account endpoints.
package gdatatest

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/gdata/auth"
)

// DefaultPageSize is the page size when a request has no max-results.
const DefaultPageSize = 25

// Server is a GData service listening on a loopback address.
type Server struct {
	*httptest.Server

	logger          *slog.Logger
	tracer          trace.Tracer
	pageSize        int
	authRequired    bool
	sessionRedirect bool

	mu          sync.Mutex
	collections map[string]*collection
	accounts    map[string]*account
	tokens      map[string]tokenKind
	captchas    map[string]string // captcha token -> email
	requests    int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger logs requests to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracer opens a span per request.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithAccount registers an account ClientLogin accepts.
func WithAccount(email, password string) Option {
	return func(s *Server) {
		s.accounts[email] = &account{password: password}
	}
}

// WithCaptcha makes logins for email answer with a CAPTCHA challenge until
// a retry carries answer.
func WithCaptcha(email, answer string) Option {
	return func(s *Server) {
		if a, ok := s.accounts[email]; ok {
			a.captcha = answer
		}
	}
}

// WithPageSize sets the default page size of feeds.
func WithPageSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithAuthRequired rejects feed requests without an issued token.
func WithAuthRequired() Option {
	return func(s *Server) {
		s.authRequired = true
	}
}

// WithSessionRedirect answers feed requests lacking a gsessionid with a
// 302 to the same URI plus one.
func WithSessionRedirect() Option {
	return func(s *Server) {
		s.sessionRedirect = true
	}
}

// NewServer starts a Server. Call Close when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:      slog.New(slog.DiscardHandler),
		tracer:      noop.NewTracerProvider().Tracer("gdatatest"),
		pageSize:    DefaultPageSize,
		collections: make(map[string]*collection),
		accounts:    make(map[string]*account),
		tokens:      make(map[string]tokenKind),
		captchas:    make(map[string]string),
	}

	for _, opt := range opts {
		opt(s)
	}

	a := newApp(s.logger, s.tracer, logRequests(s.logger), handleErrors(s.logger), recoverPanics())

	a.handle("POST /accounts/ClientLogin", s.clientLogin)
	a.handle("GET /accounts/AuthSubRequest", s.authSubRequest)
	a.handle("GET /accounts/AuthSubSessionToken", s.authSubSession)
	a.handle("GET /accounts/AuthSubRevokeToken", s.authSubRevoke)

	a.handle("GET /feeds/{coll}", s.guard(s.getFeed))
	a.handle("POST /feeds/{coll}", s.guard(s.postEntry))
	a.handle("POST /feeds/{coll}/batch", s.guard(s.batch))
	a.handle("GET /feeds/{coll}/{id}", s.guard(s.getEntry))
	a.handle("PUT /feeds/{coll}/{id}", s.guard(s.putEntry))
	a.handle("DELETE /feeds/{coll}/{id}", s.guard(s.deleteEntry))
	a.handle("GET /media/{coll}/{id}", s.guard(s.getMedia))

	s.Server = httptest.NewUnstartedServer(countRequests(s, a))
	s.Start()

	return s
}

func countRequests(s *Server, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// Requests returns how many requests the server has received.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests
}

// Host returns the server's host:port.
func (s *Server) Host() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// FeedURL returns the absolute URL of a collection.
func (s *Server) FeedURL(coll string) string {
	return fmt.Sprintf("%s/feeds/%s", s.URL, coll)
}

// Endpoints returns account endpoints served by s.
func (s *Server) Endpoints() auth.Endpoints {
	return auth.Endpoints{
		ClientLogin:    s.URL + "/accounts/ClientLogin",
		CaptchaBase:    s.URL + "/accounts/",
		AuthSubRequest: s.URL + "/accounts/AuthSubRequest",
		AuthSubSession: s.URL + "/accounts/AuthSubSessionToken",
		AuthSubRevoke:  s.URL + "/accounts/AuthSubRevokeToken",
	}
}

// LoginToken issues a ClientLogin token valid for every collection.
func (s *Server) LoginToken() *auth.ClientLoginToken {
	return &auth.ClientLoginToken{Value: s.issue(tokenLogin), Scopes: auth.AllScopes()}
}
