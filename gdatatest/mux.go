package gdatatest

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// handler is an http.Handler that returns an error.
type handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// middleware chains handlers together.
type middleware func(h handler) handler

// app routes requests onto handlers wrapped in the middleware stack, each
// inside a span.
type app struct {
	mux    *http.ServeMux
	mw     []middleware
	logger *slog.Logger
	tracer trace.Tracer
}

func newApp(logger *slog.Logger, tracer trace.Tracer, mw ...middleware) *app {
	return &app{
		mux:    http.NewServeMux(),
		mw:     mw,
		logger: logger,
		tracer: tracer,
	}
}

func (a *app) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// handle registers h for pattern, e.g. "GET /feeds/{coll}".
func (a *app) handle(pattern string, h handler) {
	h = wrap(a.mw, h)

	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx, span := a.tracer.Start(r.Context(), "gdatatest.handler")
		defer span.End()
		span.SetAttributes(attribute.String("path", r.RequestURI))

		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(w.Header()))

		traceID := span.SpanContext().TraceID().String()
		if !span.SpanContext().TraceID().IsValid() {
			traceID = uuid.New().String()
		}

		v := values{
			traceID: traceID,
			now:     time.Now().UTC(),
		}
		r = r.WithContext(context.WithValue(ctx, valuesKey, &v))

		if err := h(r.Context(), w, r); err != nil {
			a.logger.Error("gdatatest", "handle", err)
		}
	}

	a.mux.HandleFunc(pattern, fn)
}

// wrap middleware around the handler and execute in order given.
func wrap(mw []middleware, h handler) handler {
	for _, fn := range slices.Backward(mw) {
		if fn != nil {
			h = fn(h)
		}
	}

	return h
}

// /////////////////////////////////////////////////////////////////

type ctxKey int

const valuesKey ctxKey = 1

// values are shared across one request for logging.
type values struct {
	traceID    string
	now        time.Time
	statusCode int
}

func getValues(ctx context.Context) *values {
	v, ok := ctx.Value(valuesKey).(*values)
	if !ok {
		return &values{traceID: uuid.Nil.String(), now: time.Now()}
	}

	return v
}

func setStatusCode(ctx context.Context, code int) {
	if v, ok := ctx.Value(valuesKey).(*values); ok {
		v.statusCode = code
	}
}
