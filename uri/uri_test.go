package uri_test

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/adamwoolhether/gdata/uri"
)

func TestParse(t *testing.T) {
	testCases := map[string]struct {
		raw string
		exp uri.URI
	}{
		"absolute": {
			raw: "http://www.google.com/test?q=foo&z=bar",
			exp: uri.URI{Scheme: "http", Host: "www.google.com", Path: "/test", Query: map[string]string{"q": "foo", "z": "bar"}},
		},
		"port": {
			raw: "https://example.com:8443/feeds/default",
			exp: uri.URI{Scheme: "https", Host: "example.com", Port: 8443, Path: "/feeds/default"},
		},
		"relative": {
			raw: "/feeds/default/private/full",
			exp: uri.URI{Path: "/feeds/default/private/full"},
		},
		"escapedQuery": {
			raw: "/feeds?q=a+b&scope=http%3A%2F%2Fexample.net%2F",
			exp: uri.URI{Path: "/feeds", Query: map[string]string{"q": "a b", "scope": "http://example.net/"}},
		},
		"fragment": {
			raw: "http://example.com/a#frag",
			exp: uri.URI{Scheme: "http", Host: "example.com", Path: "/a", Fragment: "frag"},
		},
		"emptyValue": {
			raw: "/a?flag",
			exp: uri.URI{Path: "/a", Query: map[string]string{"flag": ""}},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := uri.Parse(tc.raw)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", tc.raw, err)
			}

			if diff := cmp.Diff(tc.exp, *got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("unexpected uri (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	testCases := map[string]uri.URI{
		"root":            {Scheme: "http", Host: "example.com", Path: "/"},
		"port":            {Scheme: "https", Host: "spreadsheets.google.com", Port: 443, Path: "/feeds/list/key/od6/private/full"},
		"relativeQuery":   {Path: "/feeds/default", Query: map[string]string{"max-results": "10", "q": "a b&c"}},
		"escapedFragment": {Scheme: "http", Host: "example.com", Path: "/a b/c", Fragment: "x y"},
		"ipv6":            {Scheme: "http", Host: "::1", Port: 8080, Path: "/v6"},
		"noScheme":        {Host: "example.com", Path: "/no-scheme", Query: map[string]string{"next": "http://example.com/?auth_sub_scopes=a b"}},
		"schemeNoHost":    {Scheme: "http", Path: "foo"},
		"schemeAbsPath":   {Scheme: "http", Path: "/foo"},
		"schemeEscaped":   {Scheme: "urn", Path: "a b:c"},
		"colonSegment":    {Path: "a:b/c"},
		"portNoHost":      {Port: 8080, Path: "/x"},
		"doubleSlashPath": {Path: "//not-a-host/x"},
		"emptyQuery":      {Path: "/feeds", Query: map[string]string{}},
	}

	for name, u := range testCases {
		t.Run(name, func(t *testing.T) {
			rendered := u.String()

			got, err := uri.Parse(rendered)
			if err != nil {
				t.Fatalf("failed to parse rendered %q: %v", rendered, err)
			}

			if !u.Equal(got) {
				t.Errorf("round trip of %q mismatch (-want +got):\n%s", rendered, cmp.Diff(u, *got))
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a := &uri.URI{Path: "/a"}

	testCases := map[string]struct {
		b   *uri.URI
		exp bool
	}{
		"same":       {b: &uri.URI{Path: "/a"}, exp: true},
		"emptyQuery": {b: &uri.URI{Path: "/a", Query: map[string]string{}}, exp: true},
		"query":      {b: &uri.URI{Path: "/a", Query: map[string]string{"q": ""}}},
		"port":       {b: &uri.URI{Path: "/a", Port: 80}},
		"nil":        {b: nil},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := a.Equal(tc.b); got != tc.exp {
				t.Errorf("expected %v, got %v", tc.exp, got)
			}
		})
	}
}

func TestRender(t *testing.T) {
	u := uri.URI{
		Scheme: "http",
		Host:   "example.com",
		Path:   "/feeds",
		Query:  map[string]string{"z": "1", "a": "x/y", "m": "a b"},
	}

	if got, exp := u.String(), "http://example.com/feeds?a=x%2Fy&m=a+b&z=1"; got != exp {
		t.Errorf("expected %q, got %q", exp, got)
	}

	if got, exp := u.Render(false), "http://example.com/feeds?a=x/y&m=a b&z=1"; got != exp {
		t.Errorf("expected unescaped %q, got %q", exp, got)
	}
}

func TestRelativePath(t *testing.T) {
	u := uri.URI{Scheme: "http", Host: "example.com", Query: map[string]string{"q": "1"}}

	if got, exp := u.RelativePath(), "/?q=1"; got != exp {
		t.Errorf("expected %q, got %q", exp, got)
	}
}

func TestModifyRequest(t *testing.T) {
	defaults := &uri.URI{
		Scheme: "https",
		Host:   "www.google.com",
		Path:   "/ignored",
		Query:  map[string]string{"alt": "atom", "q": "default"},
	}

	req, err := http.NewRequest(http.MethodGet, "/calendar/feeds/default?q=mine", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	defaults.ModifyRequest(req)

	if got, exp := req.URL.String(), "https://www.google.com/calendar/feeds/default?alt=atom&q=mine"; got != exp {
		t.Errorf("expected %q, got %q", exp, got)
	}
	if req.Host != "www.google.com" {
		t.Errorf("expected request host to be set, got %q", req.Host)
	}
}

func TestMerge(t *testing.T) {
	base := &uri.URI{Scheme: "https", Host: "base.example.com", Port: 8443, Path: "/base", Query: map[string]string{"a": "1", "b": "1"}}
	overlay := &uri.URI{Scheme: "http", Host: "overlay.example.com", Path: "/overlay", Query: map[string]string{"b": "2"}}

	got := uri.Merge(base, overlay)

	exp := &uri.URI{
		Scheme: "https",
		Host:   "base.example.com",
		Port:   8443,
		Path:   "/overlay",
		Query:  map[string]string{"a": "1", "b": "2"},
	}

	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("unexpected merge (-want +got):\n%s", diff)
	}

	if overlay.Query["a"] != "" {
		t.Error("merge must not mutate the overlay")
	}
}

func TestURL(t *testing.T) {
	u := uri.URI{Scheme: "http", Host: "example.com"}

	if got, exp := u.URL().String(), "http://example.com/"; got != exp {
		t.Errorf("expected default path, got %q", got)
	}
}

func TestResolveReference(t *testing.T) {
	base := uri.MustParse("https://example.com/feeds/default/full?max-results=5")

	testCases := map[string]struct {
		ref string
		exp string
	}{
		"absolutePath": {ref: "/feeds/other", exp: "https://example.com/feeds/other"},
		"relativePath": {ref: "private?start-index=6", exp: "https://example.com/feeds/default/private?start-index=6"},
		"absolute":     {ref: "http://other.example.com/x", exp: "http://other.example.com/x"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := base.ResolveReference(uri.MustParse(tc.ref))
			if got.String() != tc.exp {
				t.Errorf("expected %q, got %q", tc.exp, got.String())
			}
		})
	}
}
