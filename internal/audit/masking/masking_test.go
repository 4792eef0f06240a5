package masking

import "testing"

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                                     "",
		"abc":                                  "****",
		"8c1e7c1a-3b2f-4c55-9d3e-1f2a3b4c5d6e": "****5d6e",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Fatalf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskEmail(t *testing.T) {
	if got := MaskEmail("jane@example.com"); got != "j****@example.com" {
		t.Fatalf("unexpected mask: %s", got)
	}
	if got := MaskEmail("not-an-email"); got != "****mail" {
		t.Fatalf("unexpected mask: %s", got)
	}
}
