package filtering

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// NameFilter decides whether a website name passes include/exclude glob patterns
type NameFilter interface {
	// ShouldInclude returns whether name passes and the reason for the decision
	ShouldInclude(name string, include, exclude []string) (bool, string)
}

type globNameFilter struct{}

var _ NameFilter = (*globNameFilter)(nil)

// NewNameFilter returns a NameFilter backed by gobwas/glob
func NewNameFilter() NameFilter {
	return &globNameFilter{}
}

// ValidatePatterns reports the first pattern that does not compile
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := compilePattern(pattern); err != nil {
			return err
		}
	}
	return nil
}

func compilePattern(pattern string) (glob.Glob, error) {
	// filepath.Match rejects malformed classes that glob would accept silently
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	compiled, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return compiled, nil
}

func matchAny(patterns []string, name string) (string, bool, error) {
	for _, pattern := range patterns {
		compiled, err := compilePattern(pattern)
		if err != nil {
			return pattern, false, err
		}
		if compiled.Match(name) {
			return pattern, true, nil
		}
	}
	return "", false, nil
}

// ShouldInclude applies exclude patterns first, then include patterns.
// An invalid pattern excludes the name.
func (*globNameFilter) ShouldInclude(name string, include, exclude []string) (bool, string) {
	pattern, matched, err := matchAny(exclude, name)
	if err != nil {
		return false, err.Error()
	}
	if matched {
		return false, fmt.Sprintf("excluded by pattern '%s'", pattern)
	}

	if len(include) == 0 {
		return true, "not excluded"
	}

	pattern, matched, err = matchAny(include, name)
	if err != nil {
		return false, err.Error()
	}
	if matched {
		return true, fmt.Sprintf("included by pattern '%s'", pattern)
	}
	return false, fmt.Sprintf("no match in include patterns %v", include)
}
