package token

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
)

var bearerPattern = regexp.MustCompile(`(?i)^\s*bearer\s+(\S+)\s*$`)

// proxiedHeaders carry the Authorization value when a proxy or rewrite
// layer strips the original header.
var proxiedHeaders = []string{
	"X-Forwarded-Authorization",
	"Redirect-Authorization",
}

// Extract returns the bearer token carried by r. The first non-empty
// authorization header found decides; its value must be "Bearer <token>"
// (scheme matched case-insensitively).
func Extract(r *http.Request) (string, bool) {
	value := authorizationValue(r.Header)
	if value == "" {
		return "", false
	}
	m := bearerPattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func authorizationValue(h http.Header) string {
	if v := h.Get("Authorization"); v != "" {
		return v
	}
	for _, name := range proxiedHeaders {
		if v := h.Get(name); v != "" {
			return v
		}
	}

	// Header maps built by hand may hold non-canonical keys that Get misses.
	keys := make([]string, 0, len(h))
	for k := range h {
		if strings.EqualFold(k, "authorization") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			if v != "" {
				return v
			}
		}
	}
	return ""
}
