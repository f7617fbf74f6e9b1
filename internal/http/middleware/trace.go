package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/catalog-ingest/pkg/correlationid"
)

// CorrelationIDKey tags server spans with the request's correlation id so a
// trace can be found from the id echoed to the client.
const CorrelationIDKey = attribute.Key("catalog.correlation_id")

// Trace starts a server span per request, continuing any propagated trace.
// It must run after CorrelationID.
func Trace(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipTracing(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
			}
			if id, ok := correlationid.FromContext(ctx); ok {
				attrs = append(attrs, CorrelationIDKey.String(id))
			}
			// uploads are the only requests with a body worth sizing
			if r.ContentLength > 0 {
				attrs = append(attrs, semconv.HTTPRequestBodySize(int(r.ContentLength)))
			}

			// the route is only known once chi has matched it
			ctx, span := tracer.Start(ctx, r.Method, trace.WithAttributes(attrs...),
				trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			r = r.WithContext(ctx)
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			span.SetName(fmt.Sprintf("%s %s", r.Method, route))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			span.SetAttributes(
				semconv.HTTPRoute(route),
				semconv.HTTPResponseStatusCode(status),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, fmt.Sprintf("error with HTTP status code %d", status))
			}
		})
	}
}

func skipTracing(path string) bool {
	return path == MetricsPath || path == "/healthz" || strings.HasPrefix(path, "/docs")
}
