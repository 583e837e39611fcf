// Package version carries the build and report-format versions.
package version

// Version is the tool version, overridden at release build time via
// -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = "0.3.0-dev"

// FormatVersion identifies the structure of the JSON report document.
// It changes only on breaking schema changes, so report consumers can
// gate on it.
const FormatVersion = "1"
