package bundles

import "strings"

// NormalizeVersion returns the comparison key of a version signature: trimmed,
// without a leading "v" or "V" and without build metadata. The empty string means
// "no version". Build-metadata-only releases therefore compare equal.
func NormalizeVersion(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "v")
	trimmed = strings.TrimPrefix(trimmed, "V")
	trimmed, _, _ = strings.Cut(trimmed, "+")
	return strings.TrimSpace(trimmed)
}

// SameVersion reports whether two signatures normalize to the same non-empty key
func SameVersion(a, b string) bool {
	na, nb := NormalizeVersion(a), NormalizeVersion(b)
	return na != "" && na == nb
}
