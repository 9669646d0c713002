// Package buildinfo carries the version stamped in with -ldflags, e.g.
//
//	-X nucleus/internal/buildinfo.Version=v0.3.0
package buildinfo

import "strings"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short is the identifier shown in the console header and window title.
func Short() string {
	switch {
	case Version != "" && Version != "dev":
		return Version
	case Commit != "" && Commit != "unknown":
		return shortCommit(Commit)
	}
	return "dev"
}

// Long adds the commit and build date when they are known.
func Long() string {
	parts := []string{Short()}
	if Commit != "" && Commit != "unknown" && Short() != shortCommit(Commit) {
		parts = append(parts, "commit "+shortCommit(Commit))
	}
	if Date != "" && Date != "unknown" {
		parts = append(parts, "built "+Date)
	}
	return strings.Join(parts, ", ")
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
