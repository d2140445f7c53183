// Package version carries the build metadata stamped in through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Overridden at build time, e.g.
// -ldflags "-X .../internal/version.Version=1.2.0".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short is the program name with its bare version.
func Short() string {
	return "tambur " + Version
}

// Full adds commit, build date and the toolchain that produced the binary.
func Full() string {
	return fmt.Sprintf("tambur %s (%s, built %s, %s %s/%s)",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
