// Package urlutil builds URLs on the target sites from configured bases.
package urlutil

import (
	"net/url"
	"strings"
)

// Join builds an absolute URL from a site base and a path. Absolute paths are
// returned unchanged and an empty path yields the base without its trailing
// slash.
func Join(base, path string) string {
	base = normalizeBaseURL(base)
	path = strings.TrimSpace(path)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// IsHTTP reports whether raw is an absolute http(s) URL with a host.
func IsHTTP(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Origin returns scheme://host of raw, or "" when raw is not an http(s) URL.
func Origin(raw string) string {
	if !IsHTTP(raw) {
		return ""
	}
	u, _ := url.Parse(strings.TrimSpace(raw))
	return u.Scheme + "://" + u.Host
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}
