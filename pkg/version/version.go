package version

import (
	"fmt"
	"runtime"
)

// Build variables set via ldflags, e.g.
// -X 'github.com/devopsblog/blog/pkg/version.Version=v1.0.0'
var (
	Version    = "1.0.0"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("blog %s (commit %s, built %s, %s)", i.Version, i.CommitHash, i.BuildDate, i.GoVersion)
}
