package compiler

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/lamarrr/tensorflow/internal/dialect"
)

// FilterAvailable splits descs into the kinds whose "available" constraint
// admits version and the ones it excludes. Kinds without a constraint are
// always kept. A malformed constraint is kept so that validation and
// registration report it.
func FilterAvailable(descs []dialect.Descriptor, version string) (kept, skipped []dialect.Descriptor, err error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, nil, fmt.Errorf("dialect version %q: %w", version, err)
	}
	for _, d := range descs {
		if d.Available == "" {
			kept = append(kept, d)
			continue
		}
		c, err := semver.NewConstraint(d.Available)
		if err != nil || c.Check(v) {
			kept = append(kept, d)
			continue
		}
		skipped = append(skipped, d)
	}
	return kept, skipped, nil
}
