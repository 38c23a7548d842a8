package version

import (
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags -X. Empty values fall back to the VCS stamp Go embeds
// in module builds.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
	GoVersion = ""
)

const shortCommit = 7

// Info is the build description served by the info endpoint and printed
// by the version commands.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	BuildTime string    `json:"build_time"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

var readBuildInfo = debug.ReadBuildInfo

// GetVersionInfo merges the linker variables with the embedded build info.
func GetVersionInfo() *Info {
	bi, _ := readBuildInfo()
	info := resolve(Version, GitCommit, GitBranch, BuildTime, GoVersion, bi)
	return &info
}

func resolve(ver, commit, branch, built, goVer string, bi *debug.BuildInfo) Info {
	info := Info{
		Version:   ver,
		GitCommit: commit,
		GitBranch: branch,
		BuildTime: built,
		GoVersion: goVer,
	}
	if bi != nil {
		if info.GoVersion == "" {
			info.GoVersion = bi.GoVersion
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.modified":
				info.IsDirty = s.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}
	if len(info.GitCommit) > shortCommit {
		info.GitCommit = info.GitCommit[:shortCommit]
	}
	if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
		info.BuildDate = t.UTC()
	}
	info.IsRelease = info.Version != "dev" && !info.IsDirty && !strings.Contains(info.Version, "dirty")
	return info
}

// Short is version-commit, with -dirty for modified trees.
func (i Info) Short() string {
	s := i.Version
	if i.GitCommit != "" {
		s += "-" + i.GitCommit
		if i.IsDirty {
			s += "-dirty"
		}
	}
	return s
}

// Full adds a non-default branch and the build date to Short.
func (i Info) Full() string {
	s := i.Short()
	if i.GitBranch != "" && i.GitBranch != "main" && i.GitBranch != "master" {
		s += " " + i.GitBranch
	}
	if !i.BuildDate.IsZero() {
		s += " (built " + i.BuildDate.Format(time.RFC3339) + ")"
	}
	return s
}

func GetShortVersion() string { return GetVersionInfo().Short() }
func GetFullVersion() string  { return GetVersionInfo().Full() }
