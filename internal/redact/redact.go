// Package redact scrubs sensitive information from strings before they are
// logged. Pipeline errors can embed provider bearer tokens, presigned URL
// signatures, AWS key ids, local filesystem paths and the phone numbers
// submitted with jobs; none of those belong in log output.
package redact

import (
	"regexp"
)

// Redaction placeholders
const (
	RedactedKeyPlaceholder   = "[REDACTED_KEY]"
	RedactedPathPlaceholder  = "[REDACTED_PATH]"
	RedactedPhonePlaceholder = "[REDACTED_PHONE]"
)

// Precompiled redaction patterns
var (
	// Bearer tokens and api-key style assignments
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/]{8,}`)
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// AWS access key ids
	awsKeyRegex = regexp.MustCompile(`AKIA[A-Z0-9]{12,}`)

	// Presigned URL credential and signature query parameters
	presignRegex = regexp.MustCompile(`(?i)(X-Amz-(Credential|Signature|Security-Token))=[^&\s]+`)

	// Local filesystem paths (uploads, data dir)
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	// Phone numbers as submitted with jobs
	phoneRegex = regexp.MustCompile(`\+?\d[\d\s-]{6,}\d`)

	patternPlaceholders = []struct {
		pattern     *regexp.Regexp
		placeholder string
	}{
		{bearerRegex, RedactedKeyPlaceholder},
		{apiKeyRegex, RedactedKeyPlaceholder},
		{awsKeyRegex, RedactedKeyPlaceholder},
		{presignRegex, "$1=" + RedactedKeyPlaceholder},
		{unixPathRegex, RedactedPathPlaceholder},
		{phoneRegex, RedactedPhonePlaceholder},
	}
)

// String returns s with all recognized sensitive fragments replaced by
// placeholders.
func String(s string) string {
	for _, p := range patternPlaceholders {
		s = p.pattern.ReplaceAllString(s, p.placeholder)
	}
	return s
}

// Error redacts err's message. Returns an empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
