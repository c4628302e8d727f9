package filtering

import (
	"fmt"
	"log/slog"

	"github.com/marcosimbuerger/monitoring-station/internal/fetcher"
	"github.com/marcosimbuerger/monitoring-station/internal/versions"
)

// Criteria holds the include/exclude lists for one request
type Criteria struct {
	NameInclude []string
	NameExclude []string
	CMSInclude  []string
	CMSExclude  []string

	// CMSVersion and PHPVersion are semver ranges the reported versions
	// have to satisfy, e.g. "< 8.1" to list outdated PHP installations
	CMSVersion string
	PHPVersion string
}

// Empty reports whether no list is set
func (c *Criteria) Empty() bool {
	return c == nil || len(c.NameInclude)+len(c.NameExclude)+len(c.CMSInclude)+len(c.CMSExclude) == 0 &&
		c.CMSVersion == "" && c.PHPVersion == ""
}

// Validate checks the name patterns
func (c *Criteria) Validate() error {
	if c == nil {
		return nil
	}
	if err := ValidatePatterns(c.NameInclude); err != nil {
		return fmt.Errorf("include: %w", err)
	}
	if err := ValidatePatterns(c.NameExclude); err != nil {
		return fmt.Errorf("exclude: %w", err)
	}
	if _, err := c.constraints(); err != nil {
		return err
	}
	return nil
}

// constraints parses the version ranges, keyed by status field
func (c *Criteria) constraints() (map[string]*versions.Constraint, error) {
	out := map[string]*versions.Constraint{}
	for field, expr := range map[string]string{"cms_version": c.CMSVersion, "php_version": c.PHPVersion} {
		if expr == "" {
			continue
		}
		constraint, err := versions.ParseConstraint(expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		out[field] = constraint
	}
	return out, nil
}

// FilterService applies Criteria to an aggregated result
type FilterService interface {
	Apply(result fetcher.AggregateResult, criteria *Criteria) fetcher.AggregateResult
}

type defaultFilterService struct {
	nameFilter NameFilter
	cmsFilter  CMSFilter
}

// NewDefaultFilterService combines the glob name filter and the CMS filter
func NewDefaultFilterService() FilterService {
	return NewFilterService(NewNameFilter(), NewCMSFilter())
}

// NewFilterService combines the given filters
func NewFilterService(nameFilter NameFilter, cmsFilter CMSFilter) FilterService {
	return &defaultFilterService{
		nameFilter: nameFilter,
		cmsFilter:  cmsFilter,
	}
}

// Apply returns the records that pass both filters, in their original order.
// Empty criteria return result unchanged.
func (s *defaultFilterService) Apply(result fetcher.AggregateResult, criteria *Criteria) fetcher.AggregateResult {
	if criteria.Empty() {
		return result
	}

	constraints, err := criteria.constraints()
	if err != nil {
		// Callers validate first; an unparseable range matches nothing
		slog.Warn("Invalid version constraint", "error", err)
		return fetcher.AggregateResult{}
	}

	filtered := make(fetcher.AggregateResult, 0, len(result))
	for _, record := range result {
		included, reason := s.shouldInclude(record, criteria, constraints)
		if !included {
			slog.Debug("Excluding website", "name", record.Name, "reason", reason)
			continue
		}
		filtered = append(filtered, record)
	}

	slog.Debug("Filtered websites", "total", len(result), "kept", len(filtered))
	return filtered
}

func (s *defaultFilterService) shouldInclude(
	record fetcher.SiteRecord,
	c *Criteria,
	constraints map[string]*versions.Constraint,
) (bool, string) {
	if ok, reason := s.nameFilter.ShouldInclude(record.Name, c.NameInclude, c.NameExclude); !ok {
		return false, "name filter: " + reason
	}

	cms, _ := record.Status["cms"].(string)
	if ok, reason := s.cmsFilter.ShouldInclude(cms, c.CMSInclude, c.CMSExclude); !ok {
		return false, "cms filter: " + reason
	}

	for field, constraint := range constraints {
		version, _ := record.Status[field].(string)
		if !constraint.Check(version) {
			return false, fmt.Sprintf("version filter: %s %q does not satisfy %s", field, version, constraint)
		}
	}
	return true, ""
}
