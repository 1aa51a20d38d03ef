package transport_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamwoolhether/gdata/client/transport"
)

func TestNetwork(t *testing.T) {
	tr := transport.Network(transport.WithConnectTimeout(2*time.Second), transport.WithReadTimeout(3*time.Second))

	if tr.ResponseHeaderTimeout != 3*time.Second {
		t.Errorf("unexpected read timeout %v", tr.ResponseHeaderTimeout)
	}
	if tr.TLSHandshakeTimeout != 2*time.Second {
		t.Errorf("unexpected handshake timeout %v", tr.TLSHandshakeTimeout)
	}
	if tr == http.DefaultTransport {
		t.Error("expected a clone of the default transport")
	}
}

func TestEcho(t *testing.T) {
	testCases := map[string]struct {
		method  string
		target  string
		body    string
		expHost string
		expURI  string
	}{
		"defaultHTTPPort": {
			method:  http.MethodGet,
			target:  "http://www.google.com/feeds/x?start-index=2",
			expHost: "www.google.com:80",
			expURI:  "/feeds/x?start-index=2",
		},
		"httpsWithBody": {
			method:  http.MethodPost,
			target:  "https://example.com/feeds",
			body:    "<entry/>",
			expHost: "example.com:443",
			expURI:  "/feeds",
		},
		"explicitPort": {
			method:  http.MethodPut,
			target:  "http://localhost:8080/a",
			body:    "x",
			expHost: "localhost:8080",
			expURI:  "/a",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("failed to build request: %v", err)
			}
			req.Header.Set("GData-Version", "2")

			resp, err := transport.Echo().RoundTrip(req)
			if err != nil {
				t.Fatalf("failed to round trip: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected 200, got %d", resp.StatusCode)
			}
			if got := resp.Header.Get(transport.EchoHost); got != tc.expHost {
				t.Errorf("expected host %q, got %q", tc.expHost, got)
			}
			if got := resp.Header.Get(transport.EchoURI); got != tc.expURI {
				t.Errorf("expected uri %q, got %q", tc.expURI, got)
			}
			if got := resp.Header.Get(transport.EchoMethod); got != tc.method {
				t.Errorf("expected method %q, got %q", tc.method, got)
			}
			if got := resp.Header.Get("GData-Version"); got != "2" {
				t.Errorf("expected request headers to be echoed, got %q", got)
			}

			body, _ := io.ReadAll(resp.Body)
			if string(body) != tc.body {
				t.Errorf("expected body %q, got %q", tc.body, body)
			}
		})
	}
}

func TestRecordReplay(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/accounts/ClientLogin":
			_, _ = io.WriteString(w, "SID=abc\nLSID=def\nAuth=secret-token\n")
		default:
			w.Header().Set("ETag", `"v`+r.Header.Get("If-Match")+`"`)
			_, _ = io.WriteString(w, "<feed/>")
		}
	}))
	defer server.Close()

	rec, err := transport.NewRecorder(transport.Record, http.DefaultTransport)
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}

	client := &http.Client{Transport: rec}

	login, err := http.NewRequest(http.MethodPost, server.URL+"/accounts/ClientLogin", strings.NewReader("Email=jo%40gmail.com&Passwd=hunter2&service=cl"))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := client.Do(login)
	if err != nil {
		t.Fatalf("failed to record login: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "Auth=secret-token") {
		t.Errorf("expected live response to be untouched, got %q", body)
	}

	for _, etag := range []string{"1", "2"} {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/feeds/x?gsessionid=s1", nil)
		req.Header.Set("Authorization", "GoogleLogin auth=secret-token")
		req.Header.Set("If-Match", etag)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("failed to record feed: %v", err)
		}
		resp.Body.Close()
	}

	for _, in := range rec.Interactions() {
		all := in.Request.Body + in.Response.Body + strings.Join(in.Request.Header["Authorization"], "")
		if strings.Contains(all, "hunter2") || strings.Contains(all, "secret-token") {
			t.Errorf("expected secrets to be scrubbed, got %+v", in)
		}
	}

	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := rec.Save(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	replay, err := transport.NewRecorder(transport.Replay, nil)
	if err != nil {
		t.Fatalf("failed to create replayer: %v", err)
	}
	if err := replay.Load(path); err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	recorded := hits.Load()
	client = &http.Client{Transport: replay}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/feeds/x?gsessionid=s1&alt=atom", nil)
	req.Header.Set("If-Match", "2")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("failed to replay: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("ETag"); got != `"v2"` {
		t.Errorf("expected the If-Match 2 recording, got etag %q", got)
	}

	// The same interaction answers once.
	req, _ = http.NewRequest(http.MethodGet, server.URL+"/feeds/x?gsessionid=s1", nil)
	req.Header.Set("If-Match", "2")
	if _, err := client.Do(req); !errors.Is(err, transport.ErrNoRecording) {
		t.Errorf("expected ErrNoRecording, got %v", err)
	}

	req, _ = http.NewRequest(http.MethodGet, server.URL+"/feeds/x?gsessionid=other", nil)
	req.Header.Set("If-Match", "1")
	if _, err := client.Do(req); !errors.Is(err, transport.ErrNoRecording) {
		t.Errorf("expected a different session not to match, got %v", err)
	}

	if got := hits.Load(); got != recorded {
		t.Errorf("expected replay not to touch the network, hits went %d -> %d", recorded, got)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRecordLeavesRequestAlone(t *testing.T) {
	var sent string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		sent = string(b)

		return &http.Response{
			StatusCode: http.StatusCreated,
			Status:     "201 Created",
			Header:     http.Header{"Content-Type": {"application/atom+xml"}},
			Body:       io.NopCloser(strings.NewReader("<entry/>")),
			Request:    r,
		}, nil
	})

	rec, err := transport.NewRecorder(transport.Record, base)
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.com/feeds/a", strings.NewReader("<entry>x</entry>"))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/atom+xml")
	body, header := req.Body, req.Header.Clone()

	resp, err := rec.RoundTrip(req)
	if err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	resp.Body.Close()

	if req.Body != body {
		t.Error("recorder replaced the caller's request body")
	}
	if req.Header.Get("Content-Type") != header.Get("Content-Type") || len(req.Header) != len(header) {
		t.Errorf("recorder changed the caller's headers: %v", req.Header)
	}
	if sent != "<entry>x</entry>" {
		t.Errorf("expected body to reach the transport, got %q", sent)
	}

	got := rec.Interactions()
	if len(got) != 1 || got[0].Request.Body != "<entry>x</entry>" {
		t.Errorf("unexpected journal %+v", got)
	}
}

func TestNewRecorderValidation(t *testing.T) {
	if _, err := transport.NewRecorder(transport.Record, nil); !errors.Is(err, transport.ErrNoTransport) {
		t.Errorf("expected ErrNoTransport, got %v", err)
	}
	if _, err := transport.NewRecorder(transport.Mode(7), nil); !errors.Is(err, transport.ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}
