package utils

import (
	"net/url"
	"strings"

	regexp "github.com/grafana/regexp"
)

// nameAllowed matches every character a display name is allowed to keep:
// letters, digits, spaces and path separators. Everything else is stripped.
var nameAllowed = regexp.MustCompile(`[^a-zA-Z0-9 /]+`)

// slugSeparators matches runs of non-alphanumeric characters that collapse
// to a single underscore when deriving a slug.
var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeName reduces a display name to the allowed character set and
// trims surrounding whitespace.
func SanitizeName(name string) string {
	return strings.TrimSpace(nameAllowed.ReplaceAllString(name, ""))
}

// Slugify derives a URL-safe base slug from a display name: lowercase,
// non-alphanumeric runs collapsed to a single underscore, trimmed.
// Uniqueness within a snapshot is the catalog builder's job.
func Slugify(name string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(slug, "_")
}

// ResolveReference resolves a possibly-relative URI against a base URL.
// Falls back to the reference unchanged when either side fails to parse.
func ResolveReference(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// LogURL returns either the original URL or an obfuscated version for logging
func LogURL(obfuscate bool, url string) string {
	if obfuscate {
		return ObfuscateURL(url)
	}
	return url
}

// ObfuscateURL masks the path and query of a URL for log output, keeping
// only the scheme and host visible.
func ObfuscateURL(urlStr string) string {
	if urlStr == "" {
		return ""
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		// If parsing fails, just obfuscate the whole thing
		return "***OBFUSCATED***"
	}

	result := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		result += "/***"
	}
	if u.RawQuery != "" {
		result += "?***"
	}
	if u.Fragment != "" {
		result += "#***"
	}

	return result
}
