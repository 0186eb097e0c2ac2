// Package versions compares release version strings
package versions

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Compare orders two version strings. Valid semver (with or without a "v"
// prefix) is compared semantically, anything else lexicographically, and a
// semver value sorts above a non-semver one. Empty strings sort lowest.
func Compare(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	av, errA := semver.NewVersion(a)
	bv, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return av.Compare(bv)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	}
	return strings.Compare(a, b)
}

// IsNewerVersion reports whether newVersion is strictly greater than oldVersion.
func IsNewerVersion(newVersion, oldVersion string) bool {
	return Compare(newVersion, oldVersion) > 0
}

// IsUpdate reports whether a published release differs from the running version.
// A leading "v" on either side is ignored; an empty latest is never an update.
func IsUpdate(latest, current string) bool {
	l := strings.TrimPrefix(strings.TrimSpace(latest), "v")
	c := strings.TrimPrefix(strings.TrimSpace(current), "v")
	return l != "" && l != c
}

// Valid reports whether v parses as a semantic version
func Valid(v string) bool {
	_, err := semver.NewVersion(strings.TrimSpace(v))
	return err == nil
}
