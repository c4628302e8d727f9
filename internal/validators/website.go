// Package validators checks website configuration entries and sanitizes the
// status documents returned by monitoring satellites.
package validators

import (
	"fmt"

	"github.com/marcosimbuerger/monitoring-station/internal/schema"
)

// WebsiteTemplate is the required shape of one configured website.
var WebsiteTemplate = schema.Template{
	schema.Leaf("name"),
	schema.Leaf("url"),
	schema.Object("basic_auth",
		schema.Leaf("user"),
		schema.Leaf("password"),
	),
}

// FieldError reports the first required field that is missing or empty.
type FieldError struct {
	Path string
}

// Error returns the error message
func (e *FieldError) Error() string {
	return fmt.Sprintf("required field %q is missing or empty", e.Path)
}

// CheckWebsite walks WebsiteTemplate over website and returns a *FieldError
// for the first leaf that is absent or empty.
func CheckWebsite(website map[string]any) error {
	_, err := schema.Walk(WebsiteTemplate, website, requirePresent)
	return err
}

// ValidateWebsite reports whether website carries every required field.
func ValidateWebsite(website map[string]any) bool {
	return CheckWebsite(website) == nil
}

func requirePresent(path string, value any, present bool) (any, error) {
	if !present || schema.IsEmpty(value) {
		return nil, &FieldError{Path: path}
	}
	return value, nil
}
