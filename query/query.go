// Package query builds GData feed queries: a feed path, category
// predicates and query parameters rendered in a stable order.
package query

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adamwoolhether/gdata/uri"
)

// Standard parameter names.
const (
	ParamText         = "q"
	ParamAuthor       = "author"
	ParamAlt          = "alt"
	ParamUpdatedMin   = "updated-min"
	ParamUpdatedMax   = "updated-max"
	ParamPublishedMin = "published-min"
	ParamPublishedMax = "published-max"
	ParamStartIndex   = "start-index"
	ParamMaxResults   = "max-results"
	ParamOrderBy      = "orderby"
	ParamStrict       = "strict"
	ParamFields       = "fields"
)

// Query is a feed query. The zero value queries the root path.
type Query struct {
	Feed       string
	Categories []string

	params map[string]string
	raw    map[string]bool
}

// New returns a query against feed, which may be a path or an absolute
// URI.
func New(feed string) *Query {
	return &Query{Feed: feed}
}

// Set sets a parameter; an empty value removes it.
func (q *Query) Set(key, value string) *Query {
	if value == "" {
		delete(q.params, key)
		delete(q.raw, key)
		return q
	}

	if q.params == nil {
		q.params = make(map[string]string)
	}
	q.params[key] = value
	delete(q.raw, key)

	return q
}

// SetRaw sets a parameter whose value is already percent-encoded.
func (q *Query) SetRaw(key, value string) *Query {
	q.Set(key, value)
	if value != "" {
		if q.raw == nil {
			q.raw = make(map[string]bool)
		}
		q.raw[key] = true
	}

	return q
}

// Get returns a parameter value, or "".
func (q *Query) Get(key string) string {
	return q.params[key]
}

// Params returns a copy of the parameters.
func (q *Query) Params() map[string]string {
	return maps.Clone(q.params)
}

// AddCategory adds a category predicate. Several terms in one call are
// OR-ed together.
func (q *Query) AddCategory(terms ...string) *Query {
	if len(terms) > 0 {
		q.Categories = append(q.Categories, strings.Join(terms, "|"))
	}

	return q
}

// ExcludeCategory adds a negated category predicate.
func (q *Query) ExcludeCategory(term string) *Query {
	q.Categories = append(q.Categories, "-"+term)
	return q
}

func (q *Query) Text(s string) *Query   { return q.Set(ParamText, s) }
func (q *Query) Author(s string) *Query { return q.Set(ParamAuthor, s) }
func (q *Query) Alt(s string) *Query    { return q.Set(ParamAlt, s) }
func (q *Query) Fields(s string) *Query { return q.Set(ParamFields, s) }

// OrderBy sets the sort order, e.g. "lastmodified".
func (q *Query) OrderBy(s string) *Query {
	return q.Set(ParamOrderBy, s)
}

func (q *Query) UpdatedMin(t time.Time) *Query   { return q.setTime(ParamUpdatedMin, t) }
func (q *Query) UpdatedMax(t time.Time) *Query   { return q.setTime(ParamUpdatedMax, t) }
func (q *Query) PublishedMin(t time.Time) *Query { return q.setTime(ParamPublishedMin, t) }
func (q *Query) PublishedMax(t time.Time) *Query { return q.setTime(ParamPublishedMax, t) }

// StartIndex sets the 1-based index of the first result.
func (q *Query) StartIndex(n int) *Query {
	return q.SetInt(ParamStartIndex, n)
}

// MaxResults caps the number of entries returned.
func (q *Query) MaxResults(n int) *Query {
	return q.SetInt(ParamMaxResults, n)
}

// Strict makes the server reject unknown parameters.
func (q *Query) Strict(strict bool) *Query {
	return q.SetBool(ParamStrict, strict)
}

// SetInt sets an integer parameter.
func (q *Query) SetInt(key string, n int) *Query {
	return q.Set(key, strconv.Itoa(n))
}

// SetBool sets a boolean parameter as "true" or "false".
func (q *Query) SetBool(key string, b bool) *Query {
	return q.Set(key, strconv.FormatBool(b))
}

func (q *Query) setTime(key string, t time.Time) *Query {
	if t.IsZero() {
		return q.Set(key, "")
	}

	return q.Set(key, t.Format(time.RFC3339))
}

// Path returns the feed path with the category segment appended.
func (q *Query) Path() string {
	if len(q.Categories) == 0 {
		return q.Feed
	}

	cats := make([]string, len(q.Categories))
	for i, c := range q.Categories {
		cats[i] = url.PathEscape(c)
	}

	return strings.TrimSuffix(q.Feed, "/") + "/-/" + strings.Join(cats, "/")
}

// Encode renders the parameters sorted by key, escaping values that were
// not set with SetRaw.
func (q *Query) Encode() string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(q.params)) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		if q.raw[k] {
			b.WriteString(q.params[k])
		} else {
			b.WriteString(url.QueryEscape(q.params[k]))
		}
	}

	return b.String()
}

// String renders the query as a URI reference.
func (q *Query) String() string {
	p := q.Path()
	if enc := q.Encode(); enc != "" {
		return p + "?" + enc
	}

	return p
}

// URI parses the rendered query into a URI.
func (q *Query) URI() (*uri.URI, error) {
	return uri.Parse(q.String())
}

// ErrCategoryPath is returned by Apply for a category term containing '/',
// which a URI path cannot carry as part of one segment.
var ErrCategoryPath = errors.New("category term contains '/'")

// Apply adds the query to u. Feed fills an empty path, the category
// segment is appended to the path and the parameters override values
// already there. u is left untouched on error.
func (q *Query) Apply(u *uri.URI) error {
	for _, c := range q.Categories {
		if strings.Contains(c, "/") {
			return fmt.Errorf("%w: %q", ErrCategoryPath, c)
		}
	}

	if u.Path == "" {
		u.Path = q.Feed
	}
	if len(q.Categories) > 0 {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/-/" + strings.Join(q.Categories, "/")
	}

	for k, v := range q.params {
		if q.raw[k] {
			if unescaped, err := url.QueryUnescape(v); err == nil {
				v = unescaped
			}
		}
		u.SetQuery(k, v)
	}

	return nil
}
