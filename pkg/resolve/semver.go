package resolve

import (
	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/npmmeta/pkg/spec"
)

// rangeMatcher checks versions against one parsed range. Versions that do
// not parse never match.
type rangeMatcher struct {
	c *semver.Constraints
}

func newRangeMatcher(rng string) (rangeMatcher, error) {
	c, err := semver.NewConstraint(spec.NormalizeRange(rng))
	if err != nil {
		return rangeMatcher{}, err
	}
	return rangeMatcher{c: c}, nil
}

func (m rangeMatcher) satisfies(v string) bool {
	sv, err := semver.StrictNewVersion(v)
	if err != nil {
		return false
	}
	return m.c.Check(sv)
}

// lte reports a <= b. Unparseable input compares false.
func lte(a, b string) bool {
	va, errA := semver.StrictNewVersion(a)
	vb, errB := semver.StrictNewVersion(b)
	if errA != nil || errB != nil {
		return false
	}
	return !va.GreaterThan(vb)
}

// lt reports a < b. Unparseable input compares false.
func lt(a, b string) bool {
	va, errA := semver.StrictNewVersion(a)
	vb, errB := semver.StrictNewVersion(b)
	if errA != nil || errB != nil {
		return false
	}
	return va.LessThan(vb)
}
