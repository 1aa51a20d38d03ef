package gdatatest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

func logRequests(log *slog.Logger) middleware {
	return func(next handler) handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := getValues(ctx)

			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path = fmt.Sprintf("%s?%s", path, r.URL.RawQuery)
			}

			log.Debug("request started", "method", r.Method, "path", path, "trace_id", v.traceID)

			err := next(ctx, w, r)

			log.Debug("request completed", "method", r.Method, "path", path, "trace_id", v.traceID, "statusCode", v.statusCode, "since", time.Since(v.now).String())

			return err
		}
	}
}

// handleErrors renders errors escaping the handlers as plain text
// replies. Unknown errors become a 500 with the detail hidden.
func handleErrors(log *slog.Logger) middleware {
	return func(next handler) handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := next(ctx, w, r)
			if err == nil {
				return nil
			}

			var se *statusError
			if !errors.As(err, &se) {
				log.Error(err.Error(), "trace_id", getValues(ctx).traceID)
				se = &statusError{code: http.StatusInternalServerError, msg: http.StatusText(http.StatusInternalServerError)}
			}

			for k, v := range se.header {
				w.Header().Set(k, v)
			}

			return respondText(ctx, w, se.code, se.msg)
		}
	}
}

func recoverPanics() middleware {
	return func(next handler) handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(debug.Stack()))
				}
			}()

			return next(ctx, w, r)
		}
	}
}
