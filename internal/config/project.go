package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig represents the .spekscan.yml configuration file that a
// repository can carry at its root. CLI flags always win over it.
type ProjectConfig struct {
	Profile string   `yaml:"profile,omitempty"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	Output  string   `yaml:"output,omitempty"`
}

// LoadProjectConfig attempts to load .spekscan.yml from the scan root.
// A missing file returns an empty config, not an error.
func LoadProjectConfig(scanPath string) (*ProjectConfig, error) {
	configPath := filepath.Join(scanPath, ".spekscan.yml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &ProjectConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, WrapError("failed to read "+configPath, err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, WrapError(configPath+" is not valid YAML", err)
	}

	return &cfg, nil
}

// MergeWithSettings applies project config values that the CLI left at
// their defaults. Exclude patterns union instead of replacing, so a
// project ignore list and a one-off CLI exclude both apply.
func (c *ProjectConfig) MergeWithSettings(settings *Settings) {
	if c == nil || settings == nil {
		return
	}

	if c.Profile != "" && settings.Profile == "default" {
		settings.Profile = c.Profile
	}
	if c.Output != "" && settings.OutputFile == "compliance-report.json" {
		settings.OutputFile = c.Output
	}
	if len(c.Include) > 0 && len(settings.IncludePatterns) == 0 {
		settings.IncludePatterns = append(settings.IncludePatterns, c.Include...)
	}

	settings.ExcludePatterns = MergeExcludes(c.Exclude, settings.ExcludePatterns)
}

// MergeExcludes merges project excludes with CLI excludes, removing
// duplicates while keeping first-seen order.
func MergeExcludes(projectExcludes, cliExcludes []string) []string {
	seen := make(map[string]bool)
	merged := make([]string, 0, len(projectExcludes)+len(cliExcludes))

	for _, list := range [][]string{projectExcludes, cliExcludes} {
		for _, exclude := range list {
			if exclude == "" || seen[exclude] {
				continue
			}
			seen[exclude] = true
			merged = append(merged, exclude)
		}
	}

	return merged
}
