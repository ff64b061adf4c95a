package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// versionRegex accepts exactly three dot-separated decimal components.
// Pre-release suffixes ("4.0.0-alpha") are rejected: OpenCV tags its
// releases with plain triples, and the tag name is derived from this string.
var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// minorVersionRegex accepts a "major.minor" pair such as "3.4".
var minorVersionRegex = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// Version is a requested OpenCV release, e.g. 3.4.0.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// ParseVersion converts a dotted "major.minor.patch" string into a Version.
func ParseVersion(s string) (Version, error) {
	m := versionRegex.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor.patch (e.g. 3.4.0)", s)
	}

	parts := make([]int, 3)
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		parts[i] = n
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// String returns the dotted form, which is also the upstream tag name.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compact returns the digits-only form OpenCV appends to its Java artifacts,
// e.g. "340" for libopencv_java340.so and opencv-340.jar.
func (v Version) Compact() string {
	return fmt.Sprintf("%d%d%d", v.Major, v.Minor, v.Patch)
}

// IsZero reports whether the version was never set.
func (v Version) IsZero() bool {
	return v == Version{}
}

// AtLeast compares major and minor components only. The patch component
// never influences the minimum-version gate.
func (v Version) AtLeast(minimum MinorVersion) bool {
	if v.Major != minimum.Major {
		return v.Major > minimum.Major
	}
	return v.Minor >= minimum.Minor
}

// MinorVersion is a "major.minor" pair used as the supported minimum.
type MinorVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

// ParseMinorVersion converts "3.4" into a MinorVersion.
func ParseMinorVersion(s string) (MinorVersion, error) {
	m := minorVersionRegex.FindStringSubmatch(s)
	if m == nil {
		return MinorVersion{}, fmt.Errorf("invalid minimum version %q: expected major.minor (e.g. 3.4)", s)
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return MinorVersion{}, fmt.Errorf("invalid minimum version %q: %w", s, err)
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return MinorVersion{}, fmt.Errorf("invalid minimum version %q: %w", s, err)
	}
	return MinorVersion{Major: major, Minor: minor}, nil
}

// String returns the dotted "major.minor" form.
func (m MinorVersion) String() string {
	return fmt.Sprintf("%d.%d", m.Major, m.Minor)
}
