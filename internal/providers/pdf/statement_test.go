package pdf

import (
	"bytes"
	"context"
	"testing"
)

func TestRenderStatement(t *testing.T) {
	doc, err := New().RenderStatement(context.Background(), StatementData{
		ProjectTitle:    "Landing page",
		ProjectID:       "42",
		FreelancerName:  "Jane",
		ManagerName:     "Mia",
		IssueDate:       "2025-01-01",
		AcceptedPrice:   "500",
		EstimatedBudget: "600",
		AmountPaid:      "200",
		Remaining:       "300",
		PaymentStatus:   "PARTIAL",
		Entries: []StatementEntry{
			{Date: "2025-01-01", Description: "deposit", Amount: "200", RecordedBy: "Mia"},
			{Date: "2025-01-02", Description: "kickoff call"},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got %q", doc[:min(len(doc), 8)])
	}
}

func TestRenderStatementWithoutEntries(t *testing.T) {
	doc, err := New().RenderStatement(context.Background(), StatementData{ProjectTitle: "Empty"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(doc) == 0 {
		t.Fatal("expected document bytes")
	}
}
