package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/gdsfm/internal/fault"
)

func zipAsset(name string) Asset {
	return Asset{Name: name, DownloadURL: "https://example.test/" + name, Size: 10}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "v1.4.0", Canonical("1.4"))
	assert.Equal(t, "v1.4.0", Canonical("v1.4.0"))
	assert.Equal(t, "v2.0.0-beta.1", Canonical("2.0.0-beta.1"))
	assert.Empty(t, Canonical("dev"))
	assert.Empty(t, Canonical(""))
}

func TestNewer(t *testing.T) {
	assert.True(t, Newer("v1.5.0", "v1.4.9"))
	assert.False(t, Newer("v1.4.0", "1.4.0"))
	assert.False(t, Newer("v1.3.0", "v1.4.0"))
	assert.True(t, Newer("v0.1.0", "dev"))
	assert.False(t, Newer("latest", "v1.0.0"))
}

func TestSelect(t *testing.T) {
	releases := []Release{
		{TagName: "v2.0.0-beta.1", Name: "GDS.FM 2.0 beta", Prerelease: true, Assets: []Asset{zipAsset("GDS.FM-2.0.0-beta.1.zip")}},
		{TagName: "v1.6.0", Name: "GDSPlayer 1.6.0", Assets: []Asset{zipAsset("GDS.FM-1.6.0.zip")}},
		{TagName: "v1.5.1", Name: "GDS.FM 1.5.1", Assets: []Asset{zipAsset("GDS.FM-1.5.1.dmg")}},
		{TagName: "v1.5.0", Name: "GDS.FM 1.5.0", Assets: []Asset{zipAsset("checksums.txt"), zipAsset("GDS.FM-1.5.0.zip")}},
		{TagName: "v1.4.0", Name: "GDS.FM 1.4.0", Assets: []Asset{zipAsset("GDS.FM-1.4.0.zip")}},
		{TagName: "v1.7.0", Name: "GDS.FM 1.7.0", Draft: true, Assets: []Asset{zipAsset("GDS.FM-1.7.0.zip")}},
	}

	tests := []struct {
		name      string
		criteria  Criteria
		wantTag   string
		wantAsset string
	}{
		{"skips wrong prefix, missing zip, draft and prerelease", Criteria{Prefix: "GDS.FM", Current: "v1.4.0"}, "v1.5.0", "GDS.FM-1.5.0.zip"},
		{"prerelease allowed", Criteria{Prefix: "GDS.FM", Current: "v1.4.0", AllowPrerelease: true}, "v2.0.0-beta.1", "GDS.FM-2.0.0-beta.1.zip"},
		{"no prefix", Criteria{Current: "v1.4.0"}, "v1.6.0", "GDS.FM-1.6.0.zip"},
		{"dev build", Criteria{Prefix: "GDS.FM", Current: "dev"}, "v1.5.0", "GDS.FM-1.5.0.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, a, err := Select(releases, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTag, r.TagName)
			assert.Equal(t, tt.wantAsset, a.Name)
		})
	}
}

func TestSelect_UpToDate(t *testing.T) {
	releases := []Release{{TagName: "v1.5.0", Name: "GDS.FM 1.5.0", Assets: []Asset{zipAsset("GDS.FM-1.5.0.zip")}}}
	_, _, err := Select(releases, Criteria{Prefix: "GDS.FM", Current: "1.5.0"})
	assert.ErrorIs(t, err, fault.ErrNoUpdate)

	_, _, err = Select(nil, Criteria{})
	assert.ErrorIs(t, err, fault.ErrNoUpdate)
}
