package version

import (
	"runtime/debug"
	"testing"
	"time"
)

func buildInfo(settings ...string) *debug.BuildInfo {
	bi := &debug.BuildInfo{GoVersion: "go1.25.0"}
	for i := 0; i+1 < len(settings); i += 2 {
		bi.Settings = append(bi.Settings, debug.BuildSetting{Key: settings[i], Value: settings[i+1]})
	}
	return bi
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		built     string
		bi        *debug.BuildInfo
		wantShort string
		release   bool
		year      int
	}{
		{
			name:      "dev without build info",
			version:   "dev",
			wantShort: "dev",
		},
		{
			name:      "linker values win",
			version:   "1.2.0",
			commit:    "abc1234",
			built:     "2026-01-15T10:30:00Z",
			bi:        buildInfo("vcs.revision", "ffffffffffffffff", "vcs.time", "2020-01-01T00:00:00Z"),
			wantShort: "1.2.0-abc1234",
			release:   true,
			year:      2026,
		},
		{
			name:      "vcs fallback",
			version:   "1.2.0",
			bi:        buildInfo("vcs.revision", "0123456789abcdef", "vcs.time", "2025-06-01T08:00:00Z"),
			wantShort: "1.2.0-0123456",
			release:   true,
			year:      2025,
		},
		{
			name:      "modified tree",
			version:   "1.2.0",
			bi:        buildInfo("vcs.revision", "0123456789abcdef", "vcs.modified", "true"),
			wantShort: "1.2.0-0123456-dirty",
		},
		{
			name:      "dirty version string",
			version:   "1.2.0-dirty",
			wantShort: "1.2.0-dirty",
		},
		{
			name:      "unparsable build time",
			version:   "1.2.0",
			built:     "yesterday",
			wantShort: "1.2.0",
			release:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := resolve(tt.version, tt.commit, "", tt.built, "", tt.bi)
			if got := info.Short(); got != tt.wantShort {
				t.Errorf("Short() = %q, want %q", got, tt.wantShort)
			}
			if info.IsRelease != tt.release {
				t.Errorf("IsRelease = %v, want %v", info.IsRelease, tt.release)
			}
			if tt.year == 0 && !info.BuildDate.IsZero() {
				t.Errorf("BuildDate = %v, want zero", info.BuildDate)
			}
			if tt.year != 0 && info.BuildDate.Year() != tt.year {
				t.Errorf("BuildDate = %v, want year %d", info.BuildDate, tt.year)
			}
			if tt.bi != nil && info.GoVersion != "go1.25.0" {
				t.Errorf("GoVersion = %q", info.GoVersion)
			}
		})
	}
}

func TestInfo_Full(t *testing.T) {
	built := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"dev", Info{Version: "dev"}, "dev"},
		{"main branch hidden", Info{Version: "1.0.0", GitCommit: "abc1234", GitBranch: "main", BuildDate: built},
			"1.0.0-abc1234 (built 2026-01-15T10:30:00Z)"},
		{"feature branch", Info{Version: "1.0.0", GitCommit: "abc1234", GitBranch: "feature/lots"},
			"1.0.0-abc1234 feature/lots"},
	}
	for _, tt := range tests {
		if got := tt.info.Full(); got != tt.want {
			t.Errorf("%s: Full() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGetVersionInfo(t *testing.T) {
	prevRead, prevVersion, prevCommit := readBuildInfo, Version, GitCommit
	t.Cleanup(func() { readBuildInfo, Version, GitCommit = prevRead, prevVersion, prevCommit })

	readBuildInfo = func() (*debug.BuildInfo, bool) { return buildInfo("vcs.revision", "feedfacecafe"), true }
	Version, GitCommit = "3.1.4", ""

	if got := GetShortVersion(); got != "3.1.4-feedfac" {
		t.Errorf("GetShortVersion() = %q", got)
	}
	if got := GetFullVersion(); got != "3.1.4-feedfac" {
		t.Errorf("GetFullVersion() = %q", got)
	}
	if info := GetVersionInfo(); info.GoVersion != "go1.25.0" {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
}
