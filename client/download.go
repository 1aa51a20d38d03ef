package client

import (
	"context"
	"fmt"
	"hash"
	"net/http"
	"strings"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/client/download"
)

// DownloadOption configures [Client.Download].
type DownloadOption = download.Option

// DownloadError wraps a download sentinel with detail.
type DownloadError = download.Error

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch
	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch
	// ErrMediaTypeMismatch indicates the server sent another media type.
	ErrMediaTypeMismatch = download.ErrMediaTypeMismatch
	// ErrDownloadCancelled indicates the download was cancelled via context.
	ErrDownloadCancelled = download.ErrDownloadCancelled
)

// WithChecksum enables checksum validation of the downloaded file.
// h is a [hash.Hash] such as sha256.New() and expected is the hex or
// base64 sum.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(h, expected)
}

// WithProgress enables periodic download progress logging.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithSkipExisting causes a download to return nil immediately when
// the destination file already exists.
func WithSkipExisting() DownloadOption { return download.WithSkipExisting() }

// WithMediaType rejects a reply of another media type; "image/*" matches
// any image.
func WithMediaType(mediaType string) DownloadOption { return download.WithMediaType(mediaType) }

// Download streams the media at target to destPath. Data streams to a
// temp file in the same directory, which is renamed to destPath on success
// or removed on failure.
func (c *Client) Download(ctx context.Context, target, destPath string, opts ...DownloadOption) error {
	if destPath == "" {
		return download.ErrNoDestination
	}

	req, err := c.Request(ctx, http.MethodGet, target)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer c.discard(resp)

	src := download.Source{
		Body:        resp.Body,
		Length:      resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if err := download.Handle(ctx, src, destPath, c.logger, opts...); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	return nil
}

// DownloadContent downloads the media an entry's content@src points at,
// checking it against content@type.
func (c *Client) DownloadContent(ctx context.Context, entry atom.Entrier, destPath string, opts ...DownloadOption) error {
	content := entry.AtomEntry().Content
	if content == nil || content.Src == "" {
		return ErrNoContentSrc
	}

	if strings.Contains(content.Type, "/") {
		opts = append([]DownloadOption{download.WithMediaType(content.Type)}, opts...)
	}

	return c.Download(ctx, content.Src, destPath, opts...)
}
