// Package version centralizes the application version string.
package version

// version is overridable at build time via -ldflags "-X milsabores/pkg/version.version=...".
var version = "dev"

// Version returns the version the binary was built with.
func Version() string {
	return version
}
