package gdatatest

import (
	"context"
	"fmt"
	"io"
	"maps"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/element"
)

const maxBodySize = 32 << 20

type resource struct {
	entry     *atom.Entry
	version   int
	media     []byte
	mediaType string
}

func (r *resource) etag() string {
	return fmt.Sprintf(`W/"%s.%d"`, path.Base(r.entry.ID.String())[:8], r.version)
}

type collection struct {
	order []string
	items map[string]*resource
}

// coll returns the named collection, creating it. Callers hold s.mu.
func (s *Server) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{items: make(map[string]*resource)}
		s.collections[name] = c
	}

	return c
}

// Seed stores entries in coll as if they had been posted and returns the
// stored copies.
func (s *Server) Seed(coll string, entries ...*atom.Entry) []*atom.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*atom.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.insert(coll, e, nil, ""))
	}

	return out
}

// Entry returns a copy of a stored entry.
func (s *Server) Entry(coll, id string) (*atom.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.coll(coll).items[id]
	if !ok {
		return nil, false
	}

	return s.view(res), true
}

// Len returns the number of entries in coll.
func (s *Server) Len(coll string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.coll(coll).order)
}

// insert stores e under a fresh id. Callers hold s.mu.
func (s *Server) insert(coll string, e *atom.Entry, media []byte, mediaType string) *atom.Entry {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	now := time.Now().UTC()

	stored := *e
	stored.BatchMarkers = atom.BatchMarkers{}
	stored.ID = atom.NewValue(fmt.Sprintf("%s/%s", s.FeedURL(coll), id))
	stored.Published = atom.NewTime(now)
	stored.Updated = atom.NewTime(now)

	res := &resource{entry: &stored, version: 1, media: media, mediaType: mediaType}
	if media != nil {
		stored.Content = &atom.Content{Type: mediaType, Src: fmt.Sprintf("%s/media/%s/%s", s.URL, coll, id)}
	}

	c := s.coll(coll)
	c.items[id] = res
	c.order = append(c.order, id)

	return s.view(res)
}

// replace overwrites a stored entry with e, keeping its identity.
// Callers hold s.mu.
func (s *Server) replace(res *resource, e *atom.Entry) *atom.Entry {
	next := *e
	next.BatchMarkers = atom.BatchMarkers{}
	next.ID = res.entry.ID
	next.Published = res.entry.Published
	next.Updated = atom.NewTime(time.Now().UTC())
	if res.media != nil {
		next.Content = res.entry.Content
	}

	res.entry = &next
	res.version++

	return s.view(res)
}

func (s *Server) remove(coll, id string) {
	c := s.coll(coll)
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
}

// view is the representation sent to clients: the stored entry with its
// current ETag and links.
func (s *Server) view(res *resource) *atom.Entry {
	e := *res.entry
	e.Links = slices.Clone(e.Links)
	e.ETag = res.etag()
	e.SetLink(atom.RelSelf, atom.TypeAtom, e.ID.String())
	e.SetLink(atom.RelEdit, atom.TypeAtom, e.ID.String())
	if res.media != nil {
		e.SetLink(atom.RelEditMedia, res.mediaType, e.Content.Src)
	}

	return &e
}

// /////////////////////////////////////////////////////////////////

func (s *Server) getFeed(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	name := r.PathValue("coll")
	q := r.URL.Query()

	start, err := intParam(q.Get("start-index"), 1)
	if err != nil || start < 1 {
		return fail(http.StatusBadRequest, "Invalid value for start-index parameter: %s", q.Get("start-index"))
	}
	size, err := intParam(q.Get("max-results"), s.pageSize)
	if err != nil || size < 0 {
		return fail(http.StatusBadRequest, "Invalid value for max-results parameter: %s", q.Get("max-results"))
	}
	text := strings.ToLower(q.Get("q"))

	s.mu.Lock()
	c := s.coll(name)

	var matched []*resource
	for _, id := range c.order {
		res := c.items[id]
		if text == "" || matches(res.entry, text) {
			matched = append(matched, res)
		}
	}

	feed := atom.Feed{}
	feedURL := s.FeedURL(name)
	feed.ID = atom.NewValue(feedURL)
	feed.Title = atom.NewText(name)
	feed.Updated = atom.NewTime(time.Now().UTC())
	feed.SetLink(atom.RelFeed, atom.TypeAtom, feedURL)
	feed.SetLink(atom.RelPost, atom.TypeAtom, feedURL)
	feed.SetLink(atom.RelBatch, atom.TypeAtom, feedURL+"/batch")
	feed.SetLink(atom.RelSelf, atom.TypeAtom, pageURL(feedURL, q, start))
	feed.TotalResults = atom.NewValue(strconv.Itoa(len(matched)))
	feed.StartIndex = atom.NewValue(strconv.Itoa(start))
	feed.ItemsPerPage = atom.NewValue(strconv.Itoa(size))

	for i := start - 1; i < len(matched) && i < start-1+size; i++ {
		feed.Entries = append(feed.Entries, s.view(matched[i]))
	}
	if start-1+size < len(matched) {
		feed.SetLink(atom.RelNext, atom.TypeAtom, pageURL(feedURL, q, start+size))
	}
	s.mu.Unlock()

	return respondAtom(ctx, w, http.StatusOK, &feed)
}

func matches(e *atom.Entry, text string) bool {
	return strings.Contains(strings.ToLower(e.Title.String()), text) ||
		strings.Contains(strings.ToLower(e.Content.String()), text) ||
		strings.Contains(strings.ToLower(e.Summary.String()), text)
}

func pageURL(feedURL string, q url.Values, start int) string {
	next := maps.Clone(q)
	if next == nil {
		next = url.Values{}
	}
	next.Set("start-index", strconv.Itoa(start))

	return feedURL + "?" + next.Encode()
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}

	return strconv.Atoi(raw)
}

func (s *Server) postEntry(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	name := r.PathValue("coll")

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return fail(http.StatusBadRequest, "parsing content type: %v", err)
	}

	var (
		entry atom.Entry
		media []byte
		mtype string
	)

	body := io.LimitReader(r.Body, maxBodySize)

	switch mediaType {
	case atom.TypeAtom:
		if err := element.Decode(body, &entry); err != nil {
			return fail(http.StatusBadRequest, "parsing entry: %v", err)
		}

	case "multipart/related":
		mr := multipart.NewReader(body, params["boundary"])

		meta, err := mr.NextPart()
		if err != nil {
			return fail(http.StatusBadRequest, "reading entry part: %v", err)
		}
		if err := element.Decode(meta, &entry); err != nil {
			return fail(http.StatusBadRequest, "parsing entry part: %v", err)
		}

		part, err := mr.NextPart()
		if err != nil {
			return fail(http.StatusBadRequest, "reading media part: %v", err)
		}
		mtype = part.Header.Get("Content-Type")
		if media, err = io.ReadAll(part); err != nil {
			return fail(http.StatusBadRequest, "reading media part: %v", err)
		}

	default:
		mtype = r.Header.Get("Content-Type")
		if media, err = io.ReadAll(body); err != nil {
			return fail(http.StatusBadRequest, "reading media: %v", err)
		}
		if slug := r.Header.Get("Slug"); slug != "" {
			entry.Title = atom.NewText(slug)
		}
	}

	if media == nil && entry.Content == nil && entry.Title == nil {
		return fail(http.StatusBadRequest, "Entry must have a title or content")
	}

	s.mu.Lock()
	created := s.insert(name, &entry, media, mtype)
	s.mu.Unlock()

	w.Header().Set("Location", created.ID.String())
	w.Header().Set("ETag", created.ETag)

	return respondAtom(ctx, w, http.StatusCreated, created)
}

// lookup finds a resource and checks If-Match against it. A missing
// resource is reported before a stale version.
func (s *Server) lookup(r *http.Request) (*resource, error) {
	res, ok := s.coll(r.PathValue("coll")).items[r.PathValue("id")]
	if !ok {
		return nil, fail(http.StatusNotFound, "Entry not found: %s", r.PathValue("id"))
	}

	if m := r.Header.Get("If-Match"); m != "" && m != "*" && m != res.etag() {
		return nil, conflict(res.etag())
	}

	return res, nil
}

func (s *Server) getEntry(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	res, err := s.lookup(r)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	e := s.view(res)
	s.mu.Unlock()

	w.Header().Set("ETag", e.ETag)

	return respondAtom(ctx, w, http.StatusOK, e)
}

func (s *Server) putEntry(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var entry atom.Entry
	if err := element.Decode(io.LimitReader(r.Body, maxBodySize), &entry); err != nil {
		return fail(http.StatusBadRequest, "parsing entry: %v", err)
	}

	s.mu.Lock()
	res, err := s.lookup(r)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	updated := s.replace(res, &entry)
	s.mu.Unlock()

	w.Header().Set("ETag", updated.ETag)

	return respondAtom(ctx, w, http.StatusOK, updated)
}

func (s *Server) deleteEntry(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(r); err != nil {
		return err
	}
	s.remove(r.PathValue("coll"), r.PathValue("id"))

	return respondEmpty(ctx, w, http.StatusOK)
}

func (s *Server) getMedia(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	res, ok := s.coll(r.PathValue("coll")).items[r.PathValue("id")]
	var data []byte
	var mtype string
	if ok {
		data, mtype = res.media, res.mediaType
	}
	s.mu.Unlock()

	if data == nil {
		return fail(http.StatusNotFound, "Media not found: %s", r.PathValue("id"))
	}

	setStatusCode(ctx, http.StatusOK)
	w.Header().Set("Content-Type", mtype)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing media: %w", err)
	}

	return nil
}
