package validators

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/marcosimbuerger/monitoring-station/internal/schema"
)

// ResponseTemplate lists the status fields a satellite may report. Anything
// else in a response is dropped.
var ResponseTemplate = schema.Template{
	schema.Leaf("cms"),
	schema.Leaf("cms_version"),
	schema.Leaf("php_version"),
}

// SanitizeResponse keeps the fields of ResponseTemplate that carry a value and
// strips markup from string values. Missing and empty fields are omitted.
func SanitizeResponse(raw map[string]any) map[string]any {
	// copyAndStrip never aborts, so the walk cannot fail.
	out, _ := schema.Walk(ResponseTemplate, raw, copyAndStrip)
	return out
}

func copyAndStrip(_ string, value any, present bool) (any, error) {
	if !present || schema.IsEmpty(value) {
		return nil, schema.SkipLeaf
	}

	switch v := value.(type) {
	case string:
		stripped := StripTags(v)
		if stripped == "" {
			return nil, schema.SkipLeaf
		}
		return stripped, nil
	case map[string]any, []any:
		return nil, schema.SkipLeaf
	default:
		// Status fields are strings; numbers and booleans are rendered as text
		return fmt.Sprint(v), nil
	}
}

// StripTags removes tags and comments from s and keeps the text between them.
// Character references are left untouched.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}
