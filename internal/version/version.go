// Package version holds the build-time version variables for the orginv
// binaries. Local builds report the zero values; release builds inject the
// real ones via -ldflags.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the string printed by "orginv version".
func Info() string {
	return fmt.Sprintf("orginv version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// AppID is the application token appended to AWS SDK user agents.
func AppID() string {
	return "orginv/" + Version
}
