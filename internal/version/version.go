// Package version holds build metadata set with
// -ldflags "-X github.com/kailas-cloud/searchbridge/internal/version.Version=...".
package version

import "fmt"

//nolint:gochecknoglobals // ldflags targets
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String is the one-line build description printed by the CLI.
func String() string {
	return fmt.Sprintf("searchbridge %s (commit %s, built %s)", Version, Commit, Date)
}
