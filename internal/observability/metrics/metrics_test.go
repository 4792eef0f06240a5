package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("role", "FREELANCER"),
		attribute.String("email", "jane@example.com"),
		attribute.String("status", "ACCEPTED"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "email" {
			t.Fatal("expected email to be dropped")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordInvitationIssued(context.Background(), "MANAGER")
	m.RecordOfferDecided(context.Background(), "ACCEPTED")
	m.RecordProfileSelfHealed(context.Background())
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordFinancialUpdate(context.Background(), "PAID")
}

func TestGinMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWithRegisterer(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	router := gin.New()
	router.Use(GinMiddleware(m))
	router.GET("/api/projects/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/projects/%d", i), nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counter := findCounter(families, "marketplace_http_requests_total")
	if counter == nil {
		t.Fatal("expected request counter to be gathered")
	}
	if got := counter.GetCounter().GetValue(); got != 3 {
		t.Fatalf("expected 3 requests, got %v", got)
	}
	for _, label := range counter.GetLabel() {
		if label.GetName() == "route" && label.GetValue() != "/api/projects/:id" {
			t.Fatalf("expected templated route label, got %s", label.GetValue())
		}
	}
}

func TestClassifyJobError(t *testing.T) {
	if got := ClassifyJobError(context.DeadlineExceeded); got != JobErrorDeadlineExceeded {
		t.Fatalf("expected deadline reason, got %s", got)
	}
	if got := ClassifyJobError(&pgconn.PgError{Code: "55P03"}); got != JobErrorLockTimeout {
		t.Fatalf("expected lock timeout reason, got %s", got)
	}
	if got := ClassifyJobError(errors.New("boom")); got != JobErrorUnknown {
		t.Fatalf("expected unknown reason, got %s", got)
	}
}

func findCounter(families []*dto.MetricFamily, name string) *dto.Metric {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		if len(family.GetMetric()) == 0 {
			return nil
		}
		return family.GetMetric()[0]
	}
	return nil
}
