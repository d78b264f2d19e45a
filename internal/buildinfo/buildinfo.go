// Package buildinfo carries build-time metadata injected via ldflags,
// kept separate from user configuration.
package buildinfo

// Set at build time with:
//
//	-ldflags "-X github.com/homewatch/homewatch-go/internal/buildinfo.Version=... \
//	          -X github.com/homewatch/homewatch-go/internal/buildinfo.BuildDate=..."
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// Context is a snapshot of the build metadata for components that prefer
// a value over package variables.
type Context struct {
	Version   string
	BuildDate string
}

// Current returns the build metadata in effect for this binary.
func Current() Context {
	return Context{Version: Version, BuildDate: BuildDate}
}
