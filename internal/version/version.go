// Package version carries build identity, stamped via -ldflags at release
// time and reported in logs and the debug status endpoint.
package version

var (
	// Version is the current firmware version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
