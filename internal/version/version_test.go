package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    string
	}{
		{name: "dev build", version: "dev", commit: "unknown", date: "unknown", want: "swatches version dev ("},
		{name: "release build", version: "1.2.3", commit: "0123456789abcdef", date: "2025-01-01T00:00:00Z", want: "commit: 01234567"},
		{name: "short commit", version: "1.2.3", commit: "abc", date: "2025-01-01T00:00:00Z", want: "commit: abc,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit, Date = tt.version, tt.commit, tt.date
			if got := String(); !strings.Contains(got, tt.want) {
				t.Errorf("String() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "0.4.0"
	if got := UserAgent(); got != "swatches/0.4.0" {
		t.Errorf("UserAgent() = %q, want %q", got, "swatches/0.4.0")
	}
}
