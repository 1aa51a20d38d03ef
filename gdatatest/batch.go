package gdatatest

import (
	"context"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/element"
)

// batch runs each entry's operation in order. An entry with an unknown
// operation stops processing and marks the feed batch:interrupted.
func (s *Server) batch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	name := r.PathValue("coll")

	var req atom.Feed
	if err := element.Decode(io.LimitReader(r.Body, maxBodySize), &req); err != nil {
		return fail(http.StatusBadRequest, "parsing batch feed: %v", err)
	}

	resp := atom.Feed{}
	resp.ID = atom.NewValue(s.FeedURL(name) + "/batch")
	resp.Title = atom.NewText("Batch results")
	resp.Updated = atom.NewTime(time.Now().UTC())

	var success, failures int

	s.mu.Lock()
	for i, e := range req.Entries {
		out, ok := s.apply(name, e)
		if !ok {
			resp.Interrupted = &atom.BatchInterrupted{
				Reason:   "Unknown batch operation: " + e.BatchOp(),
				Success:  strconv.Itoa(success),
				Failures: strconv.Itoa(failures),
				Parsed:   strconv.Itoa(i + 1),
			}
			break
		}

		if out.BatchStatus.OK() {
			success++
		} else {
			failures++
		}
		resp.Entries = append(resp.Entries, out)
	}
	s.mu.Unlock()

	return respondAtom(ctx, w, http.StatusOK, &resp)
}

// apply runs one batch operation and returns the response entry. Callers
// hold s.mu.
func (s *Server) apply(coll string, e *atom.Entry) (*atom.Entry, bool) {
	op := e.BatchOp()
	c := s.coll(coll)
	id := path.Base(e.ID.String())
	res, found := c.items[id]

	var (
		out  *atom.Entry
		code int
	)

	switch {
	case op == atom.BatchInsert:
		out, code = s.insert(coll, e, nil, ""), http.StatusCreated

	case op != atom.BatchUpdate && op != atom.BatchDelete && op != atom.BatchQuery:
		return nil, false

	case !found:
		out, code = &atom.Entry{Common: atom.Common{ID: e.ID}}, http.StatusNotFound

	case op == atom.BatchUpdate && e.ETag != "" && e.ETag != res.etag():
		out, code = s.view(res), http.StatusConflict

	case op == atom.BatchUpdate:
		out, code = s.replace(res, e), http.StatusOK

	case op == atom.BatchDelete:
		s.remove(coll, id)
		out, code = &atom.Entry{Common: atom.Common{ID: e.ID}}, http.StatusOK

	default:
		out, code = s.view(res), http.StatusOK
	}

	out.SetBatch(op, e.BatchID.String())
	out.BatchStatus = &atom.BatchStatus{Code: strconv.Itoa(code), Reason: http.StatusText(code)}

	return out, true
}
