// Package transport provides the http.RoundTripper implementations a GData
// client dispatches through: a network transport with connect and read
// deadlines, an echo transport for exercising request construction, and a
// recorder that captures sessions to YAML and replays them offline.
package transport

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

type networkOptions struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
}

// NetworkOption configures the network transport.
type NetworkOption func(*networkOptions)

// WithConnectTimeout bounds dialing and the TLS handshake.
func WithConnectTimeout(d time.Duration) NetworkOption {
	return func(o *networkOptions) {
		o.connectTimeout = d
	}
}

// WithReadTimeout bounds the wait for response headers once the request is
// written.
func WithReadTimeout(d time.Duration) NetworkOption {
	return func(o *networkOptions) {
		o.readTimeout = d
	}
}

// Network returns a transport that talks HTTP or HTTPS to the request's
// host. It is a clone of http.DefaultTransport with the configured
// deadlines applied; redirects are the caller's concern.
func Network(opts ...NetworkOption) *http.Transport {
	var o networkOptions
	for _, opt := range opts {
		opt(&o)
	}

	t := http.DefaultTransport.(*http.Transport).Clone()

	if o.connectTimeout > 0 {
		dialer := &net.Dialer{
			Timeout:   o.connectTimeout,
			KeepAlive: 30 * time.Second,
		}
		t.DialContext = dialer.DialContext
		t.TLSHandshakeTimeout = o.connectTimeout
	}
	if o.readTimeout > 0 {
		t.ResponseHeaderTimeout = o.readTimeout
	}

	return t
}

// /////////////////////////////////////////////////////////////////

// Headers set by the echo transport.
const (
	EchoHost   = "Echo-Host"
	EchoURI    = "Echo-Uri"
	EchoScheme = "Echo-Scheme"
	EchoMethod = "Echo-Method"
)

type echo struct{}

// Echo returns a transport that never touches the network. Every request
// gets a 200 whose headers repeat the request's headers plus Echo-Host
// (host:port), Echo-Uri (path and query), Echo-Scheme and Echo-Method, and
// whose body is the request body.
func Echo() http.RoundTripper {
	return echo{}
}

func (echo) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	header := req.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	host := req.URL.Host
	if req.URL.Port() == "" {
		port := "80"
		if req.URL.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(req.URL.Hostname(), port)
	}

	header.Set(EchoHost, host)
	header.Set(EchoURI, req.URL.RequestURI())
	header.Set(EchoScheme, req.URL.Scheme)
	header.Set(EchoMethod, req.Method)
	header.Set("Content-Length", strconv.Itoa(len(body)))

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}
