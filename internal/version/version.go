// Package version holds the build-time version string, printed by --hello
// and the version subcommand.
package version

// Version is overridable at link time via -ldflags "-X tachyon/internal/version.Version=...".
var Version = "0.1.0"
