package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Multipart framing for media posts.
const (
	boundary         = "END_OF_PART"
	multipartType    = "multipart/related; boundary=" + boundary
	multipartPreface = "Media multipart posting\r\n"
)

// Part is one piece of a request body. Set Data for an in-memory body or
// Reader plus Length (-1 when unknown) for a stream.
type Part struct {
	ContentType string
	Data        []byte
	Reader      io.Reader
	Length      int64
}

// BytesPart returns an in-memory part.
func BytesPart(contentType string, data []byte) Part {
	return Part{ContentType: contentType, Data: data, Length: int64(len(data))}
}

// ReaderPart returns a streamed part. length is -1 when unknown.
func ReaderPart(contentType string, r io.Reader, length int64) Part {
	return Part{ContentType: contentType, Reader: r, Length: length}
}

func (p Part) validate() error {
	switch {
	case p.ContentType == "":
		return errors.New("body part needs a content type")
	case p.Data != nil && p.Reader != nil:
		return errors.New("body part sets both Data and Reader")
	}

	return nil
}

func (p Part) size() int64 {
	if p.Reader == nil {
		return int64(len(p.Data))
	}

	return p.Length
}

func (p Part) open() io.Reader {
	if p.Reader == nil {
		return bytes.NewReader(p.Data)
	}

	return p.Reader
}

// payload is an assembled request body.
type payload struct {
	contentType string
	length      int64
	// replayable bodies can be reopened for redirects.
	open       func() io.Reader
	replayable bool
}

// assemble frames parts as a single body or, for several parts, as
// multipart/related.
func assemble(parts []Part) *payload {
	switch len(parts) {
	case 0:
		return nil
	case 1:
		p := parts[0]
		return &payload{
			contentType: p.ContentType,
			length:      p.size(),
			open:        p.open,
			replayable:  p.Reader == nil,
		}
	}

	var (
		length     = int64(len(multipartPreface))
		replayable = true
		heads      = make([][]byte, len(parts))
	)

	for i, p := range parts {
		heads[i] = fmt.Appendf(nil, "--%s\r\nContent-Type: %s\r\n\r\n", boundary, p.ContentType)

		size := p.size()
		if size < 0 || length < 0 {
			length = -1
		} else {
			length += int64(len(heads[i])) + size + 2 // trailing CRLF
		}
		if p.Reader != nil {
			replayable = false
		}
	}

	tail := []byte("--" + boundary + "--\r\n")
	if length >= 0 {
		length += int64(len(tail))
	}

	open := func() io.Reader {
		readers := []io.Reader{bytes.NewReader([]byte(multipartPreface))}
		for i, p := range parts {
			readers = append(readers, bytes.NewReader(heads[i]), p.open(), bytes.NewReader([]byte("\r\n")))
		}
		readers = append(readers, bytes.NewReader(tail))

		return io.MultiReader(readers...)
	}

	return &payload{
		contentType: multipartType,
		length:      length,
		open:        open,
		replayable:  replayable,
	}
}
