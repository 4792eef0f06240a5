package tracing

import (
	"context"
	"net/http"
	"time"

	obscontext "github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/context"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "marketplace/http"

// GinMiddleware opens a server span per request. The span is renamed to the
// matched route once the handler chain has run; unmatched paths report "unknown"
// so raw ids never reach span names.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	return func(c *gin.Context) {
		method := c.Request.Method
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ctx = withRequestBaggage(ctx, span)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)

		// Authentication runs after this middleware and stores the actor on the
		// request it forwards, so read it back from the final request.
		if actor := obscontext.ActorIDFromContext(c.Request.Context()); actor != "" {
			span.SetAttributes(attribute.String("enduser.id", actor))
		}

		recordOutcome(span, c, status)
	}
}

func withRequestBaggage(ctx context.Context, span trace.Span) context.Context {
	var members []baggage.Member
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
		if m, err := baggage.NewMember("request_id", requestID); err == nil {
			members = append(members, m)
		}
	}
	if correlationID := obscontext.CorrelationIDFromContext(ctx); correlationID != "" {
		span.SetAttributes(attribute.String("correlation_id", correlationID))
		if m, err := baggage.NewMember("correlation_id", correlationID); err == nil {
			members = append(members, m)
		}
	}
	if len(members) == 0 {
		return ctx
	}
	bag, err := baggage.New(members...)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

func recordOutcome(span trace.Span, c *gin.Context, status int) {
	lastErr := c.Errors.Last()
	switch {
	case status >= http.StatusInternalServerError:
		if lastErr != nil {
			if safeErr := SafeError(lastErr.Err); safeErr != nil {
				span.RecordError(safeErr)
			}
		}
		span.SetStatus(codes.Error, "request error")
	case status >= http.StatusBadRequest && lastErr != nil:
		// Client errors keep an unset status; the event keeps the reason searchable.
		if safeErr := SafeError(lastErr.Err); safeErr != nil {
			span.AddEvent("request.rejected", trace.WithAttributes(attribute.String("reason", safeErr.Error())))
		}
	}
}
