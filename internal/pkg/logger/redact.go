package logger

import "strings"

// RedactURL masks the credentials portion of a URL or DSN for safe logging.
// "user:hunter2@acme/PAI_ADS" → "user:***@acme/PAI_ADS"
// Values without an embedded "user:pass@" are returned unchanged.
func RedactURL(s string) string {
	at := strings.Index(s, "@")
	if at < 0 {
		return s
	}
	head := s[:at]
	// Only the part after the scheme (if any) carries credentials
	if i := strings.Index(head, "://"); i >= 0 {
		head = head[i+3:]
	}
	colon := strings.Index(head, ":")
	if colon < 0 {
		return s
	}
	user := head[:colon]
	prefix := s[:at-len(head)]
	return prefix + user + ":***" + s[at:]
}
