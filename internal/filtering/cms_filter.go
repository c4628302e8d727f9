package filtering

import (
	"fmt"
	"strings"
)

// CMSFilter decides whether a reported CMS passes include/exclude lists
type CMSFilter interface {
	// ShouldInclude returns whether cms passes and the reason for the decision
	ShouldInclude(cms string, include, exclude []string) (bool, string)
}

type exactCMSFilter struct{}

var _ CMSFilter = (*exactCMSFilter)(nil)

// NewCMSFilter returns a CMSFilter that compares names case-insensitively
func NewCMSFilter() CMSFilter {
	return &exactCMSFilter{}
}

func (*exactCMSFilter) ShouldInclude(cms string, include, exclude []string) (bool, string) {
	for _, name := range exclude {
		if strings.EqualFold(cms, name) {
			return false, fmt.Sprintf("excluded cms '%s'", name)
		}
	}

	if len(include) == 0 {
		return true, "not excluded"
	}

	for _, name := range include {
		if strings.EqualFold(cms, name) {
			return true, fmt.Sprintf("included cms '%s'", name)
		}
	}
	return false, fmt.Sprintf("cms '%s' not in %v", cms, include)
}
