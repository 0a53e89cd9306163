package logutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"
)

func TestIsSensitiveLogField(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"Password *":        true,
		"password":          true,
		"ADMIN_PASSWORD":    true,
		"SLACK_WEBHOOK_URL": true,
		"RESEND_API_KEY":    true,
		"Authorization":     true,
		"Email Address":     false,
		"First name *":      false,
		"Mobile Number *":   false,
	}
	for field, want := range cases {
		if got := IsSensitiveLogField(field); got != want {
			t.Errorf("IsSensitiveLogField(%q) = %v, want %v", field, got, want)
		}
	}
}

func TestRedactValue(t *testing.T) {
	t.Parallel()

	if got := RedactValue("password field", "admin@123"); got != "[REDACTED]" {
		t.Fatalf("password not redacted: %q", got)
	}
	if got := RedactValue("username field", "admin"); got != "admin" {
		t.Fatalf("username should pass through: %q", got)
	}
	if got := RedactValue("password field", ""); got != "" {
		t.Fatalf("empty value should stay empty: %q", got)
	}
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	if got := MaskSecret("re_1234567890abcdef"); !strings.HasPrefix(got, "re_1") || strings.Contains(got, "567890") {
		t.Fatalf("unexpected mask: %q", got)
	}
	if got := MaskSecret("short"); got != "[REDACTED]" {
		t.Fatalf("short secrets should be fully redacted: %q", got)
	}
}

func testTruncateForLog_BoundedAndValidUTF8(t *rapid.T) {
	value := rapid.String().Draw(t, "value")
	limit := rapid.IntRange(1, 64).Draw(t, "limit")

	got := TruncateForLog(value, limit)
	if strings.Contains(got, "\n") {
		t.Fatalf("truncated value contains newline: %q", got)
	}
	if !utf8.ValidString(value) {
		return
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated value is not valid UTF-8: %q", got)
	}
	if len(got) > limit+len("... [truncated]") {
		t.Fatalf("truncated value too long: len=%d limit=%d", len(got), limit)
	}
}

func TestTruncateForLog_BoundedAndValidUTF8(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testTruncateForLog_BoundedAndValidUTF8)
}
