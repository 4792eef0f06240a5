package export

import (
	"testing"
	"time"
)

func TestFilename(t *testing.T) {
	got := Filename("offers", time.Date(2025, 3, 7, 23, 59, 0, 0, time.UTC))
	if got != "offers-2025-03-07.csv" {
		t.Fatalf("unexpected filename: %s", got)
	}
}

func TestCSVQuotesFields(t *testing.T) {
	data, err := CSV([]string{"title", "budget"}, [][]string{
		{`Logo, "v2"`, "600"},
		{"multi\nline", "10"},
	})
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	want := "title,budget\n\"Logo, \"\"v2\"\"\",600\n\"multi\nline\",10\n"
	if string(data) != want {
		t.Fatalf("unexpected csv:\n%q\nwant\n%q", string(data), want)
	}
}

func TestAmount(t *testing.T) {
	cases := map[int64]string{500: "5.00", 7: "0.07", 1234: "12.34", -150: "-1.50", 0: "0.00"}
	for minor, want := range cases {
		if got := Amount(minor); got != want {
			t.Fatalf("Amount(%d) = %s, want %s", minor, got, want)
		}
	}
}
