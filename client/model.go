package client

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrBodySize caps the amount of response body read when
// building an error for a non-2xx status. This prevents
// unbounded memory usage when a large response arrives with a
// failing status.
const maxErrBodySize = 4 << 10 // 4KB

const (
	// ContentTypeAtom is the content type of serialized elements.
	ContentTypeAtom = "application/atom+xml; charset=UTF-8"

	headerVersion = "GData-Version"
	spanName      = "gdata.request"
	tracerName    = "github.com/adamwoolhether/gdata/client"
)

var (
	// ErrRedirect is wrapped by a [StatusError] for 3xx replies that were
	// not followed. The error's Location carries the new target.
	ErrRedirect = errors.New("redirect")
	// ErrUnauthorized is wrapped for 401 and 403 replies.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is wrapped for 404 replies.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is wrapped for 409 and 412 replies. The error's
	// ETag carries the server's current version when it sent one.
	ErrVersionConflict = errors.New("version conflict")
	// ErrBadRequest is wrapped for the remaining 4xx replies.
	ErrBadRequest = errors.New("bad request")
	// ErrServerError is wrapped for 5xx replies and transport failures.
	ErrServerError = errors.New("server error")

	ErrNoHost       = errors.New("relative target and no default host")
	ErrNoEditLink   = errors.New("entry has no edit link")
	ErrNoBatchLink  = errors.New("feed has no batch link")
	ErrNilEntity    = errors.New("entity must not be nil")
	ErrNoContentSrc = errors.New("entry content has no src")
)

// StatusError is returned for any non-2xx reply. Err is one of the
// classification sentinels above.
type StatusError struct {
	StatusCode int
	Reason     string
	Body       string
	Header     http.Header
	ETag       string
	Location   string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%v: %d %s, location: %s", e.Err, e.StatusCode, e.Reason, e.Location)
	}

	return fmt.Sprintf("%v: %d %s, body: %s", e.Err, e.StatusCode, e.Reason, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// classify maps a non-2xx status to its sentinel.
func classify(status int) error {
	switch {
	case status >= 300 && status < 400:
		return ErrRedirect
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict || status == http.StatusPreconditionFailed:
		return ErrVersionConflict
	case status >= 400 && status < 500:
		return ErrBadRequest
	default:
		return ErrServerError
	}
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsUnauthorized(err error) bool    { return errors.Is(err, ErrUnauthorized) }
func IsVersionConflict(err error) bool { return errors.Is(err, ErrVersionConflict) }

// IsRedirect reports whether err is an unfollowed redirect and returns its
// Location.
func IsRedirect(err error) (string, bool) {
	var se *StatusError
	if errors.As(err, &se) && errors.Is(se.Err, ErrRedirect) {
		return se.Location, true
	}

	return "", false
}
