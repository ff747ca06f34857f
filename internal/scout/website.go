package scout

import (
	"strings"
)

// NormalizeWebsite lowercases a website reference and strips the scheme, any
// path beyond the bare host/path form used for comparison, and the trailing
// slash. It is idempotent: applying it twice yields the same string.
func NormalizeWebsite(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "/")
	return s
}

// DedupByWebsite drops records whose normalized website was already seen,
// preserving input order so the first occurrence wins. Records are returned
// with the website normalized.
func DedupByWebsite(in []Business) []Business {
	seen := make(map[string]struct{}, len(in))
	out := make([]Business, 0, len(in))
	for _, b := range in {
		key := NormalizeWebsite(b.Website)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		b.Website = key
		out = append(out, b)
	}
	return out
}

// Slugify converts free text to a lowercase hyphenated token suitable for
// directory URL paths ("Toronto, Ontario" -> "toronto-ontario").
func Slugify(s string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// CityOf extracts the city portion of a location string: the text before the
// first comma, or the whole string when there is none.
func CityOf(location string) string {
	if i := strings.Index(location, ","); i >= 0 {
		return strings.TrimSpace(location[:i])
	}
	return strings.TrimSpace(location)
}
