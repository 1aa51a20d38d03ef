package gdatatest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/adamwoolhether/gdata/element"
)

const contentTypeAtom = "application/atom+xml; charset=UTF-8"

// respondAtom writes v as an Atom document.
func respondAtom(ctx context.Context, w http.ResponseWriter, statusCode int, v any) error {
	setStatusCode(ctx, statusCode)

	data, err := element.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshalling response: %w", err)
	}

	w.Header().Set("Content-Type", contentTypeAtom)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(statusCode)

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}

	return nil
}

// respondText writes the line-oriented bodies the accounts service and
// error replies use.
func respondText(ctx context.Context, w http.ResponseWriter, statusCode int, body string) error {
	setStatusCode(ctx, statusCode)

	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(statusCode)

	if _, err := w.Write([]byte(body)); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}

	return nil
}

func respondEmpty(ctx context.Context, w http.ResponseWriter, statusCode int) error {
	setStatusCode(ctx, statusCode)
	w.WriteHeader(statusCode)

	return nil
}
