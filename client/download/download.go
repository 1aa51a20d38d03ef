// Package download streams GData media resources to disk with optional
// checksum validation, media type checks and progress reporting.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Handle streams src to a temp file in the directory of destPath, which is
// renamed into place on success. On any error the temp file is removed.
func Handle(ctx context.Context, src Source, destPath string, logger *slog.Logger, optFns ...Option) error {
	if destPath == "" {
		return ErrNoDestination
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return fmt.Errorf("applying option: %w", err)
		}
	}

	if opts.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			logger.Info("skipping existing file", "path", destPath)
			return nil
		}
	}

	if err := checkMediaType(opts.mediaType, src.ContentType); err != nil {
		return err
	}

	body := io.Reader(&contextReader{ctx: ctx, r: src.Body})

	file, err := os.CreateTemp(filepath.Dir(destPath), ".gdata-media-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	var writer io.Writer = file
	if opts.checksum != nil {
		writer = io.MultiWriter(writer, opts.checksum)
	}

	var progress *meter
	if opts.progress {
		progress = newMeter(writer, logger, src.Length)
		writer = progress
	}

	n, err := io.Copy(writer, body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
		}

		return fmt.Errorf("copying media body: %w", err)
	}

	if src.Length >= 0 && n != src.Length {
		return &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", src.Length, n),
		}
	}

	if progress != nil {
		progress.report("media transfer complete")
	}

	if err := opts.checksum.check(); err != nil {
		return err
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true
	logger.Debug("media stored", "path", destPath, "bytes", n)

	return nil
}

// checkMediaType compares the media types of want and got, ignoring
// parameters such as charset. A want ending in "/*" matches any subtype.
func checkMediaType(want, got string) error {
	if want == "" {
		return nil
	}

	mt, _, err := mime.ParseMediaType(got)
	if err != nil {
		return &Error{Err: ErrMediaTypeMismatch, Detail: fmt.Sprintf("expected %s, got unparsable %q", want, got)}
	}

	if prefix, ok := strings.CutSuffix(want, "/*"); ok {
		if strings.HasPrefix(mt, prefix+"/") {
			return nil
		}
	} else if strings.EqualFold(mt, want) {
		return nil
	}

	return &Error{Err: ErrMediaTypeMismatch, Detail: fmt.Sprintf("expected %s, got %s", want, mt)}
}
