// Package buildinfo carries the version stamped into axonote binaries.
//
// The variables are set with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/axonote/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/axonote/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/axonote/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/axonote
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the JSON form reported by the health endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the stamped build information.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String returns a one-line summary such as "dev (none, unknown)".
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
