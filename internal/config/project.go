package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/QTest-hq/codescope/internal/lang"
	"github.com/QTest-hq/codescope/pkg/model"
)

// ProjectFileNames are the accepted project file names, in lookup order
var ProjectFileNames = []string{".codescope.yaml", ".codescope.yml"}

// ProjectConfig represents a .codescope.yaml file in a repository
type ProjectConfig struct {
	Version string `yaml:"version"`

	// Languages restricts analysis; empty means every supported language
	Languages []string `yaml:"languages,omitempty"`

	// File patterns (doublestar globs, slash separated, relative to the repository root)
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`

	Thresholds Thresholds `yaml:"thresholds"`
}

// Thresholds drive the recommendation rules of a repository report
type Thresholds struct {
	// Minimum documentation coverage ratio (0-1)
	Coverage float64 `yaml:"coverage,omitempty"`

	// Cyclomatic complexity above which a declaration should be refactored
	MaxComplexity int `yaml:"max_complexity,omitempty"`

	// Average cyclomatic complexity above which the codebase is flagged
	AvgComplexity float64 `yaml:"avg_complexity,omitempty"`

	// File count above which the repository counts as large
	LargeRepoFiles int `yaml:"large_repo_files,omitempty"`
}

// DefaultThresholds returns the recommendation thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		Coverage:       0.5,
		MaxComplexity:  20,
		AvgComplexity:  10,
		LargeRepoFiles: 50,
	}
}

// DefaultProjectConfig returns sensible defaults
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Version: "1.0",
		Exclude: []string{
			"**/.git/**",
			"**/node_modules/**",
			"**/__pycache__/**",
			"**/vendor/**",
			"**/dist/**",
			"**/build/**",
		},
		Thresholds: DefaultThresholds(),
	}
}

// LoadProjectConfig loads a .codescope.yaml from the given directory,
// returning defaults when the directory has none
func LoadProjectConfig(repoPath string) (*ProjectConfig, error) {
	for _, name := range ProjectFileNames {
		configPath := filepath.Join(repoPath, name)
		data, err := os.ReadFile(configPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return ParseProjectConfig(data)
	}
	return DefaultProjectConfig(), nil
}

// ParseProjectConfig decodes project file content over the defaults
func ParseProjectConfig(data []byte) (*ProjectConfig, error) {
	cfg := DefaultProjectConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid project config: %w", err)
	}
	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return cfg, nil
}

// FindProjectConfig walks up from dir looking for a project file and returns
// its path, or "" when none exists up to the filesystem root
func FindProjectConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range ProjectFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// SaveProjectConfig saves the config to .codescope.yaml
func SaveProjectConfig(repoPath string, cfg *ProjectConfig) error {
	configPath := filepath.Join(repoPath, ProjectFileNames[0])

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Merge applies overrides from another config (e.g., CLI flags)
func (c *ProjectConfig) Merge(other *ProjectConfig) {
	if other == nil {
		return
	}

	if len(other.Languages) > 0 {
		c.Languages = other.Languages
	}

	if len(other.Include) > 0 {
		c.Include = other.Include
	}

	if len(other.Exclude) > 0 {
		c.Exclude = other.Exclude
	}

	if other.Thresholds.Coverage != 0 {
		c.Thresholds.Coverage = other.Thresholds.Coverage
	}

	if other.Thresholds.MaxComplexity != 0 {
		c.Thresholds.MaxComplexity = other.Thresholds.MaxComplexity
	}

	if other.Thresholds.AvgComplexity != 0 {
		c.Thresholds.AvgComplexity = other.Thresholds.AvgComplexity
	}

	if other.Thresholds.LargeRepoFiles != 0 {
		c.Thresholds.LargeRepoFiles = other.Thresholds.LargeRepoFiles
	}
}

// Matches reports whether a repository-relative path passes the include and
// exclude globs. An empty include list admits every path.
func (c *ProjectConfig) Matches(relPath string) bool {
	relPath = filepath.ToSlash(strings.TrimPrefix(relPath, "./"))
	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, pattern := range c.Include {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// LanguageFilter returns the configured languages as a set, or nil when
// every language is allowed. Aliases such as "py" are accepted and unknown
// names are ignored.
func (c *ProjectConfig) LanguageFilter() map[model.Language]bool {
	if len(c.Languages) == 0 {
		return nil
	}
	filter := make(map[model.Language]bool, len(c.Languages))
	for _, name := range c.Languages {
		if l := lang.ParseHint(name); l != model.LanguageUnknown {
			filter[l] = true
		}
	}
	return filter
}
