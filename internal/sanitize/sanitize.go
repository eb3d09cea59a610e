package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// dangerousPatterns flag injection attempts in message text. They are
// matched against the raw, pre-escape text: HTML escaping first would
// rewrite "<" to "&lt;" and the tag patterns could never fire.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
	regexp.MustCompile(`(?i)<img[^>]*src`),
}

// Sanitizer validates and escapes user-supplied chat input.
type Sanitizer struct {
	maxUsernameLength int
	maxMessageLength  int
}

// New builds a sanitizer with the given length limits.
func New(maxUsernameLength, maxMessageLength int) *Sanitizer {
	return &Sanitizer{
		maxUsernameLength: maxUsernameLength,
		maxMessageLength:  maxMessageLength,
	}
}

// SanitizeUsername trims and HTML-escapes a username. It reports false when
// the input is empty, too long, or contains characters outside [A-Za-z0-9_-].
func (s *Sanitizer) SanitizeUsername(raw string) (string, bool) {
	if raw == "" || len(raw) > s.maxUsernameLength {
		return "", false
	}

	username := strings.TrimSpace(raw)
	if username == "" {
		return "", false
	}

	if !usernamePattern.MatchString(username) {
		return "", false
	}

	return html.EscapeString(username), true
}

// SanitizeMessage trims and HTML-escapes a message body. It reports false
// when the input is empty or exceeds the length limit.
func (s *Sanitizer) SanitizeMessage(raw string) (string, bool) {
	if raw == "" || len(raw) > s.maxMessageLength {
		return "", false
	}

	message := strings.TrimSpace(raw)
	if message == "" {
		return "", false
	}

	return html.EscapeString(message), true
}

// IsDangerous reports whether the raw text matches any known injection
// pattern. Callers must pass the pre-escape text.
func (s *Sanitizer) IsDangerous(raw string) bool {
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(raw) {
			return true
		}
	}
	return false
}
