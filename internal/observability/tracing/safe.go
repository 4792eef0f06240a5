package tracing

import (
	"context"
	"errors"
	"regexp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

var blockedKeys = map[attribute.Key]struct{}{
	"email":    {},
	"password": {},
	"token":    {},
	"name":     {},
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// SafeAttributes drops attributes that may carry personal data or secrets.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedKeys[attr.Key]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError returns an error whose message has email addresses redacted.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := emailPattern.ReplaceAllString(err.Error(), "[redacted]")
	return errors.New(msg)
}

// ExtractContext pulls the remote span context from carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
