package download

import (
	"errors"
	"hash"
	"strings"
)

// Option configures Handle.
type Option func(*options) error

type options struct {
	checksum     *digest
	progress     bool
	skipExisting bool
	mediaType    string
}

// WithChecksum hashes the body with h and fails the download unless the
// sum equals expected, written in hex or base64.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		switch {
		case h == nil:
			return errors.New("checksum: nil hash")
		case expected == "":
			return errors.New("checksum: empty expected sum")
		}

		opts.checksum = &digest{h: h, want: expected}
		return nil
	}
}

// WithProgress logs the transfer through the logger passed to Handle.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithSkipExisting leaves an existing destination alone and makes Handle
// a no-op.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}

// WithMediaType rejects a body whose Content-Type differs from mediaType.
// "image/*" accepts every image type.
func WithMediaType(mediaType string) Option {
	return func(opts *options) error {
		if mediaType == "" {
			return errors.New("media type: empty")
		}

		opts.mediaType = strings.ToLower(mediaType)
		return nil
	}
}
