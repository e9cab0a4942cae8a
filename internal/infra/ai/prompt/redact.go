package prompt

import (
	"regexp"
	"strings"
)

// Credential patterns masked before text reaches the model and again on the
// way back. Replacements keep the key name where log correlation needs it.
var redactions = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)Bearer [A-Za-z0-9\-._~+/]+=*`), "[REDACTED_TOKEN]"},
	{regexp.MustCompile(`(?i)password["\s:=]+[^\s"]+`), "password=[REDACTED]"},
	{regexp.MustCompile(`(?i)(ghp|gho|gitlab)_[A-Za-z0-9]{20,}`), "[REDACTED_PAT]"},
	{regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`(?i)(JWT|jwt)[-_]?[sS]ecret["\s:=]+[^\s"]+`), "jwt_secret=[REDACTED]"},
}

var injectionMarkers = []string{"ignore previous", "disregard", "system prompt"}

// Redact masks tokens, passwords, PATs, emails and JWT secrets in text.
func Redact(text string) string {
	for _, p := range redactions {
		text = p.re.ReplaceAllString(text, p.replacement)
	}
	return text
}

// ContainsInjection reports whether text carries a prompt injection marker.
func ContainsInjection(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range injectionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
