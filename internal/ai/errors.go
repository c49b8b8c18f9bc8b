package ai

import "strings"

// transientMarkers are substrings that identify throttling and connectivity
// failures across the supported providers. Provider SDKs and raw HTTP
// responses do not share error types, so classification is textual.
var transientMarkers = []string{
	"rate limit",
	"ratelimit",
	"429",
	"quota",
	"resource exhausted",
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"502",
	"503",
}

// IsTransient reports whether err looks like a temporary provider failure
// worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
