// Package uri models the request targets used by the GData client:
// scheme, host, port, path, a query mapping and a fragment.
//
// A URI is a value type. Rendering sorts query parameters by key, so
// two URIs with the same parameters always render identically, and
// Parse(u.String()) yields a URI Equal to u as long as a URI with a host
// has an empty or absolute path.
package uri

import (
	"fmt"
	"maps"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// URI is a parsed request target. Zero-valued fields are "unset" and are
// filled in by ModifyRequest or Merge from a more complete URI.
type URI struct {
	Scheme   string
	Host     string
	Port     int
	Path     string
	Query    map[string]string
	Fragment string
}

// Parse parses raw into a URI. Relative references are allowed; the
// scheme and host are simply left unset.
func Parse(raw string) (*URI, error) {
	pu, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing uri %q: %w", raw, err)
	}

	u := URI{
		Scheme:   pu.Scheme,
		Host:     pu.Hostname(),
		Path:     pu.Path,
		Fragment: pu.Fragment,
	}

	if pu.Opaque != "" {
		u.Path = pu.Opaque
		if p, err := url.PathUnescape(pu.Opaque); err == nil {
			u.Path = p
		}
	}

	if u.Scheme == "" && pu.Host == "" {
		if rest, ok := strings.CutPrefix(u.Path, "./"); ok && colonInFirstSegment(rest) {
			u.Path = rest
		}
	}

	if p := pu.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parsing port %q: %w", p, err)
		}
		u.Port = port
	}

	if pu.RawQuery != "" {
		u.Query = ParseQuery(pu.RawQuery)
	}

	return &u, nil
}

// MustParse is like Parse but panics on error. It is intended for
// package-level endpoint constants.
func MustParse(raw string) *URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}

	return u
}

// ParseQuery splits a raw query string into a mapping. Malformed escapes
// are kept verbatim. A repeated key keeps its last value.
func ParseQuery(raw string) map[string]string {
	q := make(map[string]string)
	for pair := range strings.SplitSeq(raw, "&") {
		if pair == "" {
			continue
		}

		k, v, _ := strings.Cut(pair, "=")
		q[unescape(k)] = unescape(v)
	}

	return q
}

func unescape(s string) string {
	v, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}

	return v
}

// String renders the URI with the path, query and fragment escaped.
func (u *URI) String() string {
	return u.Render(true)
}

// Render renders the URI. When escape is false the path, query keys and
// values and fragment are written verbatim, for callers that pre-escaped
// them.
func (u *URI) Render(escape bool) string {
	var b strings.Builder

	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}

	path := u.Path
	if escape {
		path = (&url.URL{Path: u.Path}).EscapedPath()
	}

	switch {
	case u.Host != "" || u.Port != 0:
		b.WriteString("//")
		b.WriteString(u.hostPort())
		if path != "" && !strings.HasPrefix(path, "/") {
			b.WriteByte('/')
		}
	case strings.HasPrefix(path, "//"):
		// Empty authority, or the first segment would read as a host.
		b.WriteString("//")
	case u.Scheme == "" && colonInFirstSegment(path):
		b.WriteString("./")
	}
	b.WriteString(path)

	if len(u.Query) > 0 {
		b.WriteByte('?')
		b.WriteString(u.QueryString(escape))
	}

	if u.Fragment != "" {
		b.WriteByte('#')
		if escape {
			b.WriteString((&url.URL{Fragment: u.Fragment}).EscapedFragment())
		} else {
			b.WriteString(u.Fragment)
		}
	}

	return b.String()
}

// RelativePath renders the path and query only, as sent in the HTTP start line.
func (u *URI) RelativePath() string {
	rel := URI{Path: u.Path, Query: u.Query}
	if rel.Path == "" {
		rel.Path = "/"
	}

	return rel.String()
}

// QueryString renders the query mapping sorted by key, without the
// leading '?'.
func (u *URI) QueryString(escape bool) string {
	return EncodeQuery(u.Query, escape)
}

// EncodeQuery renders q sorted by key. Keys and values are
// percent-encoded unless escape is false.
func EncodeQuery(q map[string]string, escape bool) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(q)) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}

		v := q[k]
		if escape {
			k, v = url.QueryEscape(k), url.QueryEscape(v)
		}

		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}

	return b.String()
}

// Equal reports whether u and o name the same target. A nil and an empty
// query are the same.
func (u *URI) Equal(o *URI) bool {
	if u == nil || o == nil {
		return u == o
	}

	return u.Scheme == o.Scheme &&
		u.Host == o.Host &&
		u.Port == o.Port &&
		u.Path == o.Path &&
		u.Fragment == o.Fragment &&
		maps.Equal(u.Query, o.Query)
}

// IsAbsolute reports whether the URI carries both a scheme and a host.
func (u *URI) IsAbsolute() bool {
	return u.Scheme != "" && u.Host != ""
}

// Clone returns a deep copy of u.
func (u *URI) Clone() *URI {
	c := *u
	if u.Query != nil {
		c.Query = maps.Clone(u.Query)
	}

	return &c
}

// QueryValue returns the value of the query parameter key, or "".
func (u *URI) QueryValue(key string) string {
	return u.Query[key]
}

// SetQuery sets the query parameter key to value.
func (u *URI) SetQuery(key, value string) {
	if u.Query == nil {
		u.Query = make(map[string]string)
	}

	u.Query[key] = value
}

// URL converts u into a *url.URL. An unset path becomes "/" when a host
// is present.
func (u *URI) URL() *url.URL {
	pu := &url.URL{
		Scheme:   u.Scheme,
		Path:     u.Path,
		RawQuery: u.QueryString(true),
		Fragment: u.Fragment,
	}

	if u.Host != "" {
		pu.Host = u.hostPort()
		if pu.Path == "" {
			pu.Path = "/"
		}
	}

	return pu
}

// ModifyRequest fills in the fields of req's target that are currently
// unset using the corresponding fields of u. Query parameters already
// present on the request win.
func (u *URI) ModifyRequest(req *http.Request) {
	if req.URL == nil {
		req.URL = &url.URL{}
	}

	if req.URL.Scheme == "" {
		req.URL.Scheme = u.Scheme
	}

	if req.URL.Host == "" && u.Host != "" {
		req.URL.Host = u.hostPort()
		req.Host = req.URL.Host
	}

	if req.URL.Path == "" {
		req.URL.Path = u.Path
		if req.URL.Path == "" {
			req.URL.Path = "/"
		}
	}

	if len(u.Query) > 0 {
		merged := ParseQuery(req.URL.RawQuery)
		for k, v := range u.Query {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
		req.URL.RawQuery = EncodeQuery(merged, true)
	}

	if req.URL.Fragment == "" {
		req.URL.Fragment = u.Fragment
	}
}

// Merge combines base and overlay. Scheme, host and port come from base
// when set there; path and fragment come from overlay when set there.
// Query parameters from both are kept, overlay winning on conflicts.
func Merge(base, overlay *URI) *URI {
	out := overlay.Clone()

	if base.Scheme != "" {
		out.Scheme = base.Scheme
	}
	if base.Host != "" {
		out.Host = base.Host
		out.Port = base.Port
	}
	if out.Path == "" {
		out.Path = base.Path
	}
	if out.Fragment == "" {
		out.Fragment = base.Fragment
	}

	if len(base.Query) > 0 {
		q := maps.Clone(base.Query)
		maps.Copy(q, overlay.Query)
		out.Query = q
	}

	return out
}

// ResolveReference resolves ref against u per RFC 3986, as a server's
// relative link is resolved against the feed that carried it.
func (u *URI) ResolveReference(ref *URI) *URI {
	if ref.IsAbsolute() {
		return ref.Clone()
	}

	out, err := Parse(u.URL().ResolveReference(ref.URL()).String())
	if err != nil {
		return ref.Clone()
	}

	return out
}

func colonInFirstSegment(path string) bool {
	seg, _, _ := strings.Cut(path, "/")
	return strings.Contains(seg, ":")
}

func (u *URI) hostPort() string {
	if u.Port != 0 {
		return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
	}

	if strings.Contains(u.Host, ":") {
		return "[" + u.Host + "]"
	}

	return u.Host
}
