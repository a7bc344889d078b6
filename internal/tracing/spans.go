package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation scope shared by every span intake records.
const ScopeName = "github.com/intakehq/intake"

const (
	SpanQueryFetch      = "query.fetch"
	SpanMutationExecute = "mutation.execute"
	SpanAPIRequest      = "api.request"
)

const (
	AttrCacheKey      = "cache.key"
	AttrCacheSeq      = "cache.seq"
	AttrMutationName  = "mutation.name"
	AttrMutationID    = "mutation.invocation"
	AttrHTTPMethod    = "http.method"
	AttrHTTPPath      = "http.path"
	AttrHTTPStatus    = "http.status_code"
	AttrRequestID     = "http.request_id"
	AttrStaleDiscard  = "cache.stale_discarded"
	AttrCallerAborted = "caller.aborted"
)

// Start opens a span from the global tracer provider.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(ScopeName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
