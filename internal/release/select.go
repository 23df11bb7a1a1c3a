package release

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/five82/gdsfm/internal/fault"
)

// Criteria selects an eligible release.
type Criteria struct {
	// Prefix must start both the release name and the archive asset name.
	Prefix string
	// Current is the running version. An unparseable version such as "dev"
	// compares below every release.
	Current         string
	AllowPrerelease bool
}

// Canonical normalizes a tag such as "1.4" or "v1.4.0" to "v1.4.0". It returns
// "" when tag is not semver.
func Canonical(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if !strings.HasPrefix(tag, "v") {
		tag = "v" + tag
	}
	if !semver.IsValid(tag) {
		return ""
	}
	return semver.Canonical(tag)
}

// Newer reports whether candidate is a newer version than current.
func Newer(candidate, current string) bool {
	c := Canonical(candidate)
	if c == "" {
		return false
	}
	cur := Canonical(current)
	if cur == "" {
		return true
	}
	return semver.Compare(c, cur) > 0
}

// Select returns the newest release meeting c and its archive asset. When none
// qualifies the error wraps fault.ErrNoUpdate.
func Select(releases []Release, c Criteria) (Release, Asset, error) {
	var (
		best      Release
		bestAsset Asset
		found     bool
	)
	for _, r := range releases {
		if r.Draft || (r.Prerelease && !c.AllowPrerelease) {
			continue
		}
		if c.Prefix != "" && !strings.HasPrefix(r.Name, c.Prefix) {
			continue
		}
		if !Newer(r.TagName, c.Current) {
			continue
		}
		asset, ok := ArchiveAsset(r, c.Prefix)
		if !ok {
			continue
		}
		if found && semver.Compare(r.Version(), best.Version()) <= 0 {
			continue
		}
		best, bestAsset, found = r, asset, true
	}
	if !found {
		return Release{}, Asset{}, fmt.Errorf("%w: %s is current", fault.ErrNoUpdate, displayVersion(c.Current))
	}
	return best, bestAsset, nil
}

// ArchiveAsset returns the first .zip asset of r whose name has prefix.
func ArchiveAsset(r Release, prefix string) (Asset, bool) {
	for _, a := range r.Assets {
		if !strings.EqualFold(filepath.Ext(a.Name), ".zip") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(a.Name, prefix) {
			continue
		}
		return a, true
	}
	return Asset{}, false
}

func displayVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "running version"
	}
	return v
}
