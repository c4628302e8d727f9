package helpers

import (
	"os"
	"path/filepath"

	"github.com/onsi/gomega"
	"gopkg.in/yaml.v3"
)

// Website is one configured website
type Website struct {
	Name     string
	URL      string
	User     string
	Password string
}

// WebsiteFor configures a website pointing at satellite with its credentials
func WebsiteFor(name string, s *SatelliteServer) Website {
	return Website{Name: name, URL: s.URL, User: s.User, Password: s.Password}
}

// ConfigOptions holds the optional settings of WriteConfigYAML
type ConfigOptions struct {
	// Lifetime is the cache lifetime in seconds, the default when nil
	Lifetime *int

	// ExampleSatellite enables the built-in satellite with foo/bar
	ExampleSatellite bool
}

// WriteConfigYAML writes a configuration with a file cache below dir and
// returns its path. Writing again to the same dir replaces the file in place.
func WriteConfigYAML(dir string, websites []Website, opts *ConfigOptions) string {
	sites := make([]map[string]any, 0, len(websites))
	for _, w := range websites {
		sites = append(sites, map[string]any{
			"name": w.Name,
			"url":  w.URL,
			"basic_auth": map[string]any{
				"user":     w.User,
				"password": w.Password,
			},
		})
	}

	cacheSection := map[string]any{
		"backend": "file",
		"file":    map[string]any{"path": filepath.Join(dir, "cache")},
	}
	doc := map[string]any{
		"websites": sites,
		"cache":    cacheSection,
	}

	if opts != nil {
		if opts.Lifetime != nil {
			cacheSection["lifetime"] = *opts.Lifetime
		}
		if opts.ExampleSatellite {
			doc["server"] = map[string]any{
				"exampleSatellite": map[string]any{"enabled": true},
			}
		}
	}

	data, err := yaml.Marshal(doc)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, data, 0600)).To(gomega.Succeed())
	return path
}
