package download

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrMediaTypeMismatch     = errors.New("media type mismatch")
	ErrDownloadCancelled     = errors.New("download cancelled")
	ErrNoDestination         = errors.New("destination path must not be empty")
)

// Error wraps one of the sentinels above with detail about the failure.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Source is a media body to store. Length is -1 when unknown. ContentType
// is the server's Content-Type header, checked by WithMediaType.
type Source struct {
	Body        io.Reader
	Length      int64
	ContentType string
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
