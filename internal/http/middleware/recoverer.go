package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/http/apierr"
)

// Recoverer turns a handler panic into the catalog's internal error body. The
// panic is logged with its stack and recorded on the request span. Nothing is
// written when the handler already started the response.
func Recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	errorBody, err := json.Marshal(apierr.InternalServerErr)
	if err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					// aborts the response on purpose, not worth logging
					panic(rvr)
				}

				ctx := r.Context()
				span := trace.SpanFromContext(ctx)
				span.RecordError(fmt.Errorf("panic: %v", rvr), trace.WithStackTrace(true))
				span.SetStatus(codes.Error, "panic")

				log.ErrorContext(ctx, "panic while serving request",
					slog.Any("recover", rvr),
					slog.String("method", r.Method),
					slog.String("route", routePattern(r)),
					slog.Bool("response_started", ww.Status() != 0),
					slog.String("stack", string(debug.Stack())))

				if ww.Status() != 0 {
					return
				}
				ww.Header().Set("Content-Type", "application/json")
				ww.WriteHeader(http.StatusInternalServerError)
				//nolint:errcheck
				ww.Write(errorBody)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
