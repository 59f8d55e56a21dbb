// Package version holds the build version, set with
// -ldflags "-X github.com/nmurphy101/arena/version.Version=...".
package version

// Version of the arena binaries.
var Version = "dev"
