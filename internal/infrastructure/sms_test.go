package infrastructure

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+90 532 123 45 67": "+905321234567",
		"905321234567":      "+905321234567",
		"(555) 123-4567":    "+5551234567",
		"  ":                "",
		"12345":             "",
		"+1 555 CALL NOW":   "",
		"1+5551234567":      "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}
