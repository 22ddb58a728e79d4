// Package version carries the build identity reported by the CLI and the
// daemon health endpoint.
package version

// Version is set via build-time ldflags:
// go build -ldflags "-X git.home.luguber.info/inful/imgstack/internal/version.Version=v0.3.0".
var Version = "dev"

// Build metadata, also ldflags-injected.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)
