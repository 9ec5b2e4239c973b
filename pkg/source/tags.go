package source

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// versionCapture matches a three-component numeric semantic version.
const versionCapture = `(\d+\.\d+\.\d+)`

// templatePattern turns a ${version} template into an anchored pattern that
// matches a whole tag and captures the version triple. Everything around the
// token is matched literally.
func templatePattern(template string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(template)
	token := regexp.QuoteMeta(versionToken)
	return regexp.MustCompile("^" + strings.Replace(quoted, token, versionCapture, 1) + "$")
}

// resolveVersionTag matches tags against template and returns the tag whose
// captured version is the maximum one satisfying constraint (semantic
// ordering: major, minor, patch compared numerically). A nil constraint
// admits every parseable candidate. ok is false when no tag qualifies;
// enumeration order of tags never affects the result.
func resolveVersionTag(template string, tags []string, constraint *semver.Constraints) (tag string, version *semver.Version, ok bool) {
	pattern := templatePattern(template)

	var bestTag string
	var bestVersion *semver.Version
	for _, t := range tags {
		m := pattern.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		v, err := semver.StrictNewVersion(m[1])
		if err != nil {
			continue
		}
		if constraint != nil && !constraint.Check(v) {
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			bestTag, bestVersion = t, v
		}
	}

	if bestVersion == nil {
		return "", nil, false
	}
	return bestTag, bestVersion, true
}
