package library

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Platform selects the archive format and the built-in catalog.
type Platform string

const (
	// PlatformLinux uses tar archives compressed with bzip2.
	PlatformLinux Platform = "linux"
	// PlatformWindows uses zip archives.
	PlatformWindows Platform = "windows"
)

// errUnknownPlatform is returned for unsupported platform names.
var errUnknownPlatform = errors.New("unknown platform")

// Platforms returns all supported platforms.
func Platforms() []Platform {
	return []Platform{PlatformLinux, PlatformWindows}
}

// ParsePlatform converts user input into a Platform.
// An empty string resolves to the platform of the running binary.
func ParsePlatform(s string) (Platform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CurrentPlatform(), nil
	}

	for _, p := range Platforms() {
		if string(p) == s {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %s", errUnknownPlatform, s)
}

// CurrentPlatform returns the platform matching runtime.GOOS.
// Everything that is not Windows gets the Linux archives.
func CurrentPlatform() Platform {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return PlatformWindows
	}

	return PlatformLinux
}

// ArchiveExtension returns the extension used for the temporary download.
func (p Platform) ArchiveExtension() string {
	if p == PlatformWindows {
		return ".zip"
	}

	return ".tar.bz2"
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}
