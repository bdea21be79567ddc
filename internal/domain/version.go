package domain

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version strings are stored bare ("1.2.0"); x/mod/semver wants the "v"
// prefix, so it is added at the comparison boundary only.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// ValidVersion reports whether v is a well-formed semantic version.
func ValidVersion(v string) bool {
	return semver.IsValid(canonicalVersion(v))
}

// CompareVersions returns -1, 0 or +1 ordering a relative to b. Invalid
// versions compare lowest, matching semver.Compare.
func CompareVersions(a, b string) int {
	return semver.Compare(canonicalVersion(a), canonicalVersion(b))
}
