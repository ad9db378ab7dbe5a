package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetInfo(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version = "1.2.0"
	Commit = "abc123def456"
	Date = "2026-01-01T12:00:00Z"
	defer func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	}()

	info := GetInfo()

	if info.Version != "1.2.0" {
		t.Errorf("GetInfo().Version = %v, want 1.2.0", info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GetInfo().GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}

	s := info.String()
	if !strings.HasPrefix(s, "oactl 1.2.0 (abc123de)") {
		t.Errorf("String() = %q, want short commit prefix", s)
	}

	ua := info.UserAgent()
	if !strings.HasPrefix(ua, "oactl/1.2.0 (") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
