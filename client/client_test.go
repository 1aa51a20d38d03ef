package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/auth"
	"github.com/adamwoolhether/gdata/client"
	"github.com/adamwoolhether/gdata/client/transport"
	"github.com/adamwoolhether/gdata/gdatatest"
	"github.com/adamwoolhether/gdata/query"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newClient(t *testing.T, srv *gdatatest.Server, opts ...client.Option) *client.Client {
	t.Helper()

	base := []client.Option{
		client.WithScheme("http"),
		client.WithHost(srv.Host()),
		client.WithSource("gdata-test"),
		client.WithAuthEndpoints(srv.Endpoints()),
	}

	c, err := client.Build(append(base, opts...)...)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	return c
}

func TestGetFeedPaging(t *testing.T) {
	srv := gdatatest.NewServer()
	defer srv.Close()

	srv.Seed("notes", atom.NewEntry("one", ""), atom.NewEntry("two", ""), atom.NewEntry("three", ""))

	c := newClient(t, srv)
	ctx := context.Background()

	var page atom.Feed
	if err := c.GetFeed(ctx, "/feeds/notes", &page, client.WithQuery(query.New("").MaxResults(2))); err != nil {
		t.Fatalf("failed to get feed: %v", err)
	}

	var titles []string
	for {
		for _, e := range page.Entries {
			titles = append(titles, e.Title.String())
		}

		var next atom.Feed
		ok, err := c.GetNext(ctx, &page, &next)
		if err != nil {
			t.Fatalf("failed to get next page: %v", err)
		}
		if !ok {
			break
		}
		page = next
	}

	if diff := cmp.Diff([]string{"one", "two", "three"}, titles); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got := srv.Requests(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestOptimisticConcurrency(t *testing.T) {
	srv := gdatatest.NewServer()
	defer srv.Close()

	c := newClient(t, srv)
	ctx := context.Background()

	var created atom.Entry
	if err := c.Post(ctx, "/feeds/events", atom.NewEntry("Tennis with Beth", "Meet for a quick lesson."), &created); err != nil {
		t.Fatalf("failed to post entry: %v", err)
	}
	if created.ETag == "" || created.EditLink() == nil {
		t.Fatalf("expected etag and edit link on %+v", created)
	}

	stale := created
	created.Title = atom.NewText("Tennis with Elizabeth")
	if err := c.Update(ctx, &created, &created); err != nil {
		t.Fatalf("failed to update entry: %v", err)
	}

	err := c.Update(ctx, &stale, nil)
	if !client.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	var se *client.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *client.StatusError, got %T", err)
	}
	if se.ETag != created.ETag {
		t.Errorf("expected current etag %q, got %q", created.ETag, se.ETag)
	}

	if err := c.DeleteEntry(ctx, &stale); !client.IsVersionConflict(err) {
		t.Fatalf("expected stale delete to conflict, got %v", err)
	}
	if err := c.DeleteEntry(ctx, &created); err != nil {
		t.Fatalf("failed to delete entry: %v", err)
	}
	if err := c.GetEntry(ctx, created.EditLink().Href, &atom.Entry{}); !client.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusClassification(t *testing.T) {
	tests := map[string]struct {
		status int
		want   error
	}{
		"redirect":     {http.StatusFound, client.ErrRedirect},
		"unauthorized": {http.StatusUnauthorized, client.ErrUnauthorized},
		"forbidden":    {http.StatusForbidden, client.ErrUnauthorized},
		"not found":    {http.StatusNotFound, client.ErrNotFound},
		"conflict":     {http.StatusConflict, client.ErrVersionConflict},
		"precondition": {http.StatusPreconditionFailed, client.ErrVersionConflict},
		"bad request":  {http.StatusBadRequest, client.ErrBadRequest},
		"server":       {http.StatusServiceUnavailable, client.ErrServerError},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: tt.status,
					Status:     http.StatusText(tt.status),
					Header:     http.Header{"Location": {"http://example.com/moved"}},
					Body:       io.NopCloser(strings.NewReader("Sorry")),
					Request:    r,
				}, nil
			})

			c, err := client.Build(client.WithTransport(rt), client.WithHost("example.com"))
			if err != nil {
				t.Fatalf("failed to build client: %v", err)
			}

			err = c.GetFeed(context.Background(), "/feeds/x", &atom.Feed{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var se *client.StatusError
			if !errors.As(err, &se) || se.StatusCode != tt.status || se.Body != "Sorry" {
				t.Fatalf("unexpected status error %#v", err)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	c, err := client.Build(client.WithTransport(rt), client.WithHost("example.com"))
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	if err := c.Delete(context.Background(), "/feeds/x/1"); !errors.Is(err, client.ErrServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestRequestConstruction(t *testing.T) {
	tok := &auth.ClientLoginToken{Value: "abc", Scopes: auth.ScopesOf("http://example.com/feeds")}

	c, err := client.Build(
		client.WithTransport(transport.Echo()),
		client.WithHost("example.com"),
		client.WithScheme("http"),
		client.WithSource("acme-app-1"),
		client.WithHeader("X-Trace", "on"),
		client.WithTokens(tok),
	)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	entry := atom.NewEntry("t", "c")
	entry.ETag = `W/"etag"`

	tests := map[string]struct {
		method string
		target string
		opts   []client.RequestOption
		want   map[string]string
	}{
		"relative get": {
			method: http.MethodGet,
			target: "/feeds/a?alt=atom",
			opts:   []client.RequestOption{client.WithQuery(query.New("").MaxResults(5))},
			want: map[string]string{
				transport.EchoHost:   "example.com:80",
				transport.EchoURI:    "/feeds/a?alt=atom&max-results=5",
				transport.EchoScheme: "http",
				"Gdata-Version":      "2",
				"Content-Type":       client.ContentTypeAtom,
				"Authorization":      "GoogleLogin auth=abc",
				"User-Agent":         "acme-app-1 gdata-go/1.0",
				"X-Trace":            "on",
				"If-Match":           "",
			},
		},
		"category query": {
			method: http.MethodGet,
			target: "/feeds/default",
			opts:   []client.RequestOption{client.WithQuery(query.New("").AddCategory("Fritz", "Laurie").Text("x"))},
			want: map[string]string{
				transport.EchoURI: "/feeds/default/-/Fritz%7CLaurie?q=x",
			},
		},
		"delete without body": {
			method: http.MethodDelete,
			target: "/feeds/a/1",
			want:   map[string]string{"Content-Type": client.ContentTypeAtom, "If-Match": ""},
		},
		"uncovered host is anonymous": {
			method: http.MethodGet,
			target: "http://other.example.org/x",
			want: map[string]string{
				transport.EchoHost: "other.example.org:80",
				"Authorization":    "",
			},
		},
		"put sends etag": {
			method: http.MethodPut,
			target: "/feeds/a/1",
			opts:   []client.RequestOption{client.WithEntity(entry)},
			want:   map[string]string{"If-Match": `W/"etag"`, "Content-Type": client.ContentTypeAtom},
		},
		"post does not": {
			method: http.MethodPost,
			target: "/feeds/a",
			opts:   []client.RequestOption{client.WithEntity(entry)},
			want:   map[string]string{"If-Match": ""},
		},
		"explicit override": {
			method: http.MethodPut,
			target: "/feeds/a/1",
			opts:   []client.RequestOption{client.WithEntity(entry), client.WithIfMatch("*")},
			want:   map[string]string{"If-Match": "*"},
		},
		"suppressed": {
			method: http.MethodDelete,
			target: "/feeds/a/1",
			opts:   []client.RequestOption{client.WithEntity(entry), client.WithoutIfMatch()},
			want:   map[string]string{"If-Match": ""},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := c.Request(context.Background(), tt.method, tt.target, tt.opts...)
			if err != nil {
				t.Fatalf("failed to build request: %v", err)
			}

			resp, err := c.Do(req)
			if err != nil {
				t.Fatalf("failed to do request: %v", err)
			}
			defer resp.Body.Close()

			got := make(map[string]string, len(tt.want))
			for k := range tt.want {
				got[k] = resp.Header.Get(k)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestWithoutHost(t *testing.T) {
	c, err := client.Build(client.WithTransport(transport.Echo()))
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	if _, err := c.Request(context.Background(), http.MethodGet, "/feeds/a"); !errors.Is(err, client.ErrNoHost) {
		t.Fatalf("expected ErrNoHost, got %v", err)
	}
}

func TestSessionRedirect(t *testing.T) {
	srv := gdatatest.NewServer(gdatatest.WithSessionRedirect())
	defer srv.Close()

	ctx := context.Background()

	err := newClient(t, srv).Post(ctx, "/feeds/cal", atom.NewEntry("x", ""), nil)
	loc, ok := client.IsRedirect(err)
	if !ok || !strings.Contains(loc, "gsessionid=") {
		t.Fatalf("expected redirect with gsessionid, got %v", err)
	}

	var created atom.Entry
	if err := newClient(t, srv, client.WithRedirectLimit(1)).Post(ctx, "/feeds/cal", atom.NewEntry("x", ""), &created); err != nil {
		t.Fatalf("failed to post through redirect: %v", err)
	}
	if n := srv.Len("cal"); n != 1 {
		t.Errorf("expected one entry, got %d", n)
	}
}

func TestMediaRoundTrip(t *testing.T) {
	srv := gdatatest.NewServer()
	defer srv.Close()

	c := newClient(t, srv)
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\nfake image data")

	var created atom.Entry
	meta := atom.NewEntry("Cat", "")
	if err := c.PostMedia(ctx, "/feeds/photos", meta, client.BytesPart("image/png", png), &created); err != nil {
		t.Fatalf("failed to post media: %v", err)
	}

	if created.Title.String() != "Cat" || created.Content.Src == "" {
		t.Fatalf("unexpected entry %+v", created)
	}

	dest := filepath.Join(t.TempDir(), "cat.png")
	if err := c.DownloadContent(ctx, &created, dest); err != nil {
		t.Fatalf("failed to download media: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read download: %v", err)
	}
	if string(got) != string(png) {
		t.Errorf("expected %q, got %q", png, got)
	}

	err = c.DownloadContent(ctx, &created, dest+".2", client.WithMediaType("video/*"))
	if !errors.Is(err, client.ErrMediaTypeMismatch) {
		t.Fatalf("expected media type mismatch, got %v", err)
	}

	if err := c.DownloadContent(ctx, atom.NewEntry("no media", "inline"), dest); !errors.Is(err, client.ErrNoContentSrc) {
		t.Fatalf("expected ErrNoContentSrc, got %v", err)
	}
}

func TestStreamedMediaIsNotReplayed(t *testing.T) {
	srv := gdatatest.NewServer(gdatatest.WithSessionRedirect())
	defer srv.Close()

	c := newClient(t, srv, client.WithRedirectLimit(3))

	media := client.ReaderPart("text/plain", strings.NewReader("hello"), 5)
	err := c.PostMedia(context.Background(), "/feeds/files", nil, media, nil, client.WithHeaders(map[string][]string{"Slug": {"hello.txt"}}))
	if _, ok := client.IsRedirect(err); !ok {
		t.Fatalf("expected the redirect to surface, got %v", err)
	}
}
