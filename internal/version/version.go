// Package version reports the build version of wildcard-tally.
// It is set at build time using ldflags:
//
//	go build -ldflags "-X github.com/ramonehamilton/wildcard-tally/internal/version.Version=v1.2.3"
package version

// Version defaults to "dev" when not set by the linker.
var Version = "dev"

// GetVersion returns the current application version.
func GetVersion() string {
	return Version
}
