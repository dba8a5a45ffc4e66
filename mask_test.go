package authcore

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"john@example.com", "jo***@example.com"},
		{"a@example.com", "a***@example.com"},
		{"ab@example.com", "ab***@example.com"},
		{"  John@Example.COM ", "jo***@example.com"},
		{"no-at-sign", "***"},
		{"@example.com", "***"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Errorf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := normalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("normalizeEmail = %q", got)
	}
}
