package utils

import (
	"net/url"
	"strings"
)

// NormalizePagePath trims whitespace and strips any query or fragment from a
// page path, returning "" when nothing usable remains.
func NormalizePagePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// PathFromReferer extracts the path component of a Referer header value.
// Returns "" when the header is absent or not a parseable URL.
func PathFromReferer(referer string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil || u.Path == "" {
		return ""
	}
	return NormalizePagePath(u.Path)
}
