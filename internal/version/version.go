// Package version exposes the build version stamped in via ldflags.
package version

// version is overridden at build time, see the magefile Build target.
var version = "v0.0.0"

// Value returns the version the binary was built as.
func Value() string {
	return version
}
