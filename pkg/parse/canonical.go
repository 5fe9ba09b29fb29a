package parse

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL into the canonical page/link identity used
// for dedup and visited-tracking.
// It lowercases the scheme and host, removes default ports (80 for http, 443
// for https), removes trailing slashes from paths (unless root "/"), ensures
// an empty path becomes "/", and removes fragments and query strings.
// Does not modify the input *url.URL.
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	// Work on a copy
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	// Remove default ports
	host, port, err := net.SplitHostPort(normalized.Host)
	if err == nil { // Host included a port
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	// Handle path normalization
	if normalized.Path == "" {
		normalized.Path = "/"
	} else if len(normalized.Path) > 1 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = normalized.Path[:len(normalized.Path)-1]
	}

	normalized.Fragment = ""
	normalized.RawQuery = ""

	return normalized.String()
}

// Normalize parses a raw URL string and returns its canonical page/link
// identity. Malformed input normalizes to itself unresolved rather than
// failing; callers that need to distinguish rely on SameHost filtering.
func Normalize(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return NormalizeURL(parsed)
}

// Resolve resolves a possibly-relative reference against base per standard
// URL resolution rules. Absolute references pass through unchanged,
// protocol-relative references inherit the base scheme.
func Resolve(base *url.URL, ref string) (*url.URL, error) {
	if base == nil {
		return url.Parse(ref)
	}
	return base.Parse(ref)
}

// SameHost reports whether rawURL's authority component exactly matches
// baseHost. No subdomain matching, no scheme normalization beyond the exact
// comparison. Returns false (never an error) on any parse failure.
func SameHost(rawURL, baseHost string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return parsed.Host != "" && parsed.Host == baseHost
}

// StripQuery removes the query string and fragment from a raw URL without
// otherwise touching it. Backs extension tests and filename derivation on raw
// candidate strings before (or without) full normalization.
func StripQuery(rawURL string) string {
	if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}
