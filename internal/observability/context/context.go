package context

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type requestIDKey struct{}
type correlationIDKey struct{}
type actorIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// EnsureCorrelationID guarantees a correlation ID on the context, generating a ULID when missing.
func EnsureCorrelationID(ctx context.Context, incoming string) (context.Context, string) {
	if existing := CorrelationIDFromContext(ctx); existing != "" {
		return ctx, existing
	}
	cid := incoming
	if cid == "" {
		cid = ulid.Make().String()
	}
	return context.WithValue(ctx, correlationIDKey{}, cid), cid
}

func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(correlationIDKey{}).(string)
	return v
}

// WithActorID records the authenticated identity for log enrichment.
func WithActorID(ctx context.Context, actorID string) context.Context {
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(actorIDKey{}).(string)
	return v
}
