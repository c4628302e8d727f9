// Package fetcher queries the monitoring satellites of all configured websites
// and aggregates their validated status documents.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/marcosimbuerger/monitoring-station/internal/config"
	"github.com/marcosimbuerger/monitoring-station/internal/validators"
)

//go:generate mockgen -destination=mocks/mock_aggregator.go -package=mocks -source=types.go Aggregator,WebsiteSource

// ErrNoWebsites is returned when a fetcher is created without any configured website
var ErrNoWebsites = errors.New("no websites configured")

// Aggregator produces the aggregated status of all websites
type Aggregator interface {
	// Fetch queries every website once and returns the records of those that
	// answered with a usable status. It never fails as a whole.
	Fetch(ctx context.Context) AggregateResult
}

// WebsiteSource yields the configured websites in configuration order
type WebsiteSource interface {
	Websites() []config.Website
}

// AggregateResult is the ordered list of website records of one fetch.
type AggregateResult []SiteRecord

// SiteRecord is the name and URL of a website merged with its validated status.
type SiteRecord struct {
	Name   string
	URL    string
	Status map[string]any
}

// MarshalJSON writes name and url first, followed by the status fields in
// the order of validators.ResponseTemplate.
func (r SiteRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := writeField("name", r.Name); err != nil {
		return nil, err
	}
	if err := writeField("url", r.URL); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(r.Status))
	for _, key := range validators.ResponseTemplate.Keys() {
		value, ok := r.Status[key]
		if !ok {
			continue
		}
		seen[key] = struct{}{}
		if err := writeField(key, value); err != nil {
			return nil, err
		}
	}

	// Anything outside the template goes last, sorted for stable output
	var rest []string
	for key := range r.Status {
		if _, ok := seen[key]; !ok && key != "name" && key != "url" {
			rest = append(rest, key)
		}
	}
	slices.Sort(rest)
	for _, key := range rest {
		if err := writeField(key, r.Status[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a record written by MarshalJSON
func (r *SiteRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("site record must be a JSON object")
	}

	name, _ := raw["name"].(string)
	url, _ := raw["url"].(string)
	delete(raw, "name")
	delete(raw, "url")

	*r = SiteRecord{Name: name, URL: url, Status: raw}
	return nil
}
