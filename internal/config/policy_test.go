package config

import (
	"testing"
	"time"
)

func TestDefaultPolicyIsValid(t *testing.T) {
	if err := validatePolicy(DefaultPolicy()); err != nil {
		t.Fatalf("expected default policy to be valid, got %v", err)
	}
	if got := DefaultPolicy().Invitations.TTL; got != 7*24*time.Hour {
		t.Fatalf("expected 7 day invitation ttl, got %s", got)
	}
}

func TestValidatePolicyRejectsNonPositiveTTL(t *testing.T) {
	p := DefaultPolicy()
	p.Invitations.TTL = 0
	if err := validatePolicy(p); err == nil {
		t.Fatal("expected error for zero ttl")
	}

	p = DefaultPolicy()
	p.Offers.AcceptLockTTL = -time.Second
	if err := validatePolicy(p); err == nil {
		t.Fatal("expected error for negative lock ttl")
	}
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var h *PolicyHolder
	if !h.Get().Profiles.SelfHeal {
		t.Fatal("expected default self-heal to be enabled")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PUBLIC_ORIGIN", "https://app.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("SMTP_PORT", "2525")

	cfg := Load()
	if cfg.PublicOrigin != "https://app.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PublicOrigin)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 cors origins, got %v", cfg.CORSOrigins)
	}
	if cfg.Email.SMTPPort != 2525 {
		t.Fatalf("expected smtp port 2525, got %d", cfg.Email.SMTPPort)
	}
}
