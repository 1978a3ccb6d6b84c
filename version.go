/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package scanstore

import (
	"fmt"
	"runtime"
)

// Version information set by build flags:
//
//	go build -ldflags "-X github.com/a11yscan/scanstore.GitCommit=$(git rev-parse --short HEAD)"
var (
	// Version is the semantic version of scanstore
	Version = "0.1.0"

	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"

	// BuildDate is the build date (set by build flags)
	BuildDate = "unknown"
)

// VersionInfo contains version information
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("scanstore %s (commit %s, built %s, %s %s)", v.Version, v.GitCommit, v.BuildDate, v.GoVersion, v.Platform)
}
