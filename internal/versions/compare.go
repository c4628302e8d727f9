package versions

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Constraint is a parsed semver range such as ">= 9.0, < 10"
type Constraint struct {
	raw string
	c   *semver.Constraints
}

// ParseConstraint parses a semver range expression
func ParseConstraint(expr string) (*Constraint, error) {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint %q: %w", expr, err)
	}
	return &Constraint{raw: expr, c: c}, nil
}

// String returns the expression the constraint was parsed from
func (c *Constraint) String() string {
	return c.raw
}

// Check reports whether version satisfies the constraint. Versions that are
// not semver (a satellite may report "unknown" or an empty string) never do.
func (c *Constraint) Check(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return c.c.Check(v)
}
