// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/buildinfo.Version=v0.3.0"
package buildinfo

import "runtime/debug"

var (
	Version   = "dev"
	Revision  = "unknown"
	BuildDate = "unknown"
)

func init() {
	if Revision != "unknown" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			Revision = s.Value
		case "vcs.time":
			if BuildDate == "unknown" {
				BuildDate = s.Value
			}
		}
	}
}
