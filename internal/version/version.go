// Package version carries build metadata set through ldflags.
package version

//nolint:revive // Populated by the build via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
