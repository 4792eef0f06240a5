package email

import (
	"strings"
	"testing"
)

func TestRenderInviteSignup(t *testing.T) {
	subject, body, err := render(TemplateInviteSignup, map[string]any{
		"role":       "FREELANCER",
		"link":       "https://app.example.com/auth?token=abc",
		"expires_at": "2025-01-08",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "You're invited to join the marketplace as freelancer" {
		t.Fatalf("unexpected subject: %s", subject)
	}
	if !strings.Contains(body, "https://app.example.com/auth?token=abc") {
		t.Fatal("expected link in body")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, _, err := render("missing", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
