// Package version holds build metadata, set at link time:
//
//	go build -ldflags "-X github.com/MrSnakeDoc/tokendock/internal/version.Version=v0.3.0 \
//	  -X github.com/MrSnakeDoc/tokendock/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()               // go version
)

// String is the one-line build description used by the CLI and startup logs.
func String() string {
	return fmt.Sprintf("tokendock %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
