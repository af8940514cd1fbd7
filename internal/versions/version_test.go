package versions

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfoFrom(t *testing.T) {
	t.Parallel()

	vcs := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2024-03-01T10:30:00Z"},
	}

	tests := []struct {
		name          string
		version       string
		commit        string
		buildDate     string
		settings      []debug.BuildSetting
		wantVersion   string
		wantCommit    string
		wantBuildDate string
	}{
		{
			name:          "release build keeps ldflags values",
			version:       "v1.4.0",
			commit:        "feedface",
			buildDate:     "2024-05-02T08:00:00Z",
			settings:      vcs,
			wantVersion:   "v1.4.0",
			wantCommit:    "feedface",
			wantBuildDate: "2024-05-02 08:00:00 UTC",
		},
		{
			name:          "dev build uses vcs stamp",
			version:       "dev",
			commit:        unknownStr,
			buildDate:     unknownStr,
			settings:      vcs,
			wantVersion:   "build-01234567",
			wantCommit:    "0123456789abcdef",
			wantBuildDate: "2024-03-01 10:30:00 UTC",
		},
		{
			name:          "dev build without vcs stamp",
			version:       "dev",
			commit:        unknownStr,
			buildDate:     unknownStr,
			wantVersion:   "build-unknown",
			wantCommit:    unknownStr,
			wantBuildDate: unknownStr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := versionInfoFrom(tt.version, tt.commit, tt.buildDate, tt.settings)
			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, tt.wantCommit, info.Commit)
			assert.Equal(t, tt.wantBuildDate, info.BuildDate)
			assert.Equal(t, runtime.Version(), info.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
		})
	}
}
