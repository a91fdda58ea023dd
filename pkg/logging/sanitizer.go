package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Matches password=xxx, pwd=xxx, pass=xxx in DSNs and error text.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches secret-bearing parameter keys in error text
	// (access_token=..., secret_key=..., api_key=...).
	secretParamPattern = regexp.MustCompile(`(?i)(access[_-]?token|secret[_-]?key|api[_-]?key|apikey)=[^;&\s]+`)

	// Matches user:pass@host credentials embedded in connection URIs
	// (postgresql://, mysql://, mongodb://, ...).
	uriCredentialsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeConnectionString removes credentials from a connection string or
// URI. Use this before logging anything derived from connection parameters.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = uriCredentialsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// SanitizeError scrubs sensitive data from error messages produced by
// backend drivers, which frequently echo the DSN they failed to use.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = secretParamPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = uriCredentialsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}
