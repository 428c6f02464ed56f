package phone

import "testing"

func TestNormalizeForCountry(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"600000000", "34600000000"},
		{"+34600000000", "34600000000"},
		{"+34 600 00 00 00", "34600000000"},
		{"600-000-000", "34600000000"},
		{"", ""},
		{"abc", ""},
	}

	for _, tc := range cases {
		if got := NormalizeForCountry(tc.in, "34"); got != tc.want {
			t.Fatalf("NormalizeForCountry(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly(" (+34) 600-11 22 33 "); got != "34600112233" {
		t.Fatalf("unexpected digits %q", got)
	}
}

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164("600 00 00 00"); got != "+34600000000" {
		t.Fatalf("expected E.164 number, got %q", got)
	}
	if got := NormalizeE164("  not a phone "); got != "not a phone" {
		t.Fatalf("expected trimmed fallback, got %q", got)
	}
}
