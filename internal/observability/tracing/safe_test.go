package tracing

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsPersonalData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/invitations"),
		attribute.String("email", "jane@example.com"),
		attribute.String("token", "abc"),
	)
	if len(attrs) != 1 || attrs[0].Key != "http.route" {
		t.Fatalf("unexpected attributes: %v", attrs)
	}
}

func TestSafeErrorRedactsEmail(t *testing.T) {
	err := SafeError(errors.New("invitation for jane@example.com expired"))
	if err.Error() != "invitation for [redacted] expired" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if SafeError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}
