package versions

import "github.com/Masterminds/semver/v3"

// IsNewerVersion reports whether candidate is strictly greater than baseline.
// Document revision tokens such as "2.1" or "1.0.3" are compared as semantic
// versions; anything that does not parse falls back to byte-wise comparison.
func IsNewerVersion(candidate, baseline string) bool {
	c, errCandidate := semver.NewVersion(candidate)
	b, errBaseline := semver.NewVersion(baseline)
	if errCandidate != nil || errBaseline != nil {
		return candidate > baseline
	}
	return c.GreaterThan(b)
}
