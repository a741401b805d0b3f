package render

import (
	"testing"
	"time"
)

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Flight SRS", "Flight_SRS"},
		{"already_safe-123", "already_safe-123"},
		{"a/b\\c:d", "a_b_c_d"},
		{"", ""},
		{"résumé", "r_sum_"},
		{"...", "___"},
	}
	for _, tc := range cases {
		if got := SanitizeTitle(tc.in); got != tc.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	got := fileName("My Report!", now, "pdf")
	want := "My_Report__20260102_150405.pdf"
	if got != want {
		t.Errorf("fileName = %q, want %q", got, want)
	}
}

func TestFileNameUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	now := time.Date(2026, 1, 2, 7, 0, 0, 0, loc)
	got := fileName("x", now, "md")
	want := "x_20260102_000000.md"
	if got != want {
		t.Errorf("fileName = %q, want %q", got, want)
	}
}
