package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/codescope/pkg/model"
)

func TestDefaultProjectConfig(t *testing.T) {
	cfg := DefaultProjectConfig()

	assert.Equal(t, "1.0", cfg.Version)
	assert.Empty(t, cfg.Include)
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
	assert.Equal(t, 0.5, cfg.Thresholds.Coverage)
	assert.Equal(t, 20, cfg.Thresholds.MaxComplexity)
	assert.Nil(t, cfg.LanguageFilter())
}

func TestLoadProjectConfig_NoFile(t *testing.T) {
	cfg, err := LoadProjectConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultProjectConfig(), cfg)
}

func TestLoadProjectConfig_YamlFile(t *testing.T) {
	dir := t.TempDir()
	content := `version: "1.0"
languages: [python, ts]
include:
  - "src/**"
thresholds:
  coverage: 0.8
  max_complexity: 15
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescope.yaml"), []byte(content), 0644))

	cfg, err := LoadProjectConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/**"}, cfg.Include)
	assert.Equal(t, 0.8, cfg.Thresholds.Coverage)
	assert.Equal(t, 15, cfg.Thresholds.MaxComplexity)
	// Unset thresholds keep their defaults
	assert.Equal(t, 50, cfg.Thresholds.LargeRepoFiles)
	assert.Equal(t, map[model.Language]bool{
		model.LanguagePython:     true,
		model.LanguageTypeScript: true,
	}, cfg.LanguageFilter())
}

func TestLoadProjectConfig_YmlFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescope.yml"), []byte("languages: [go]\n"), 0644))

	cfg, err := LoadProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, cfg.Languages)
}

func TestLoadProjectConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":    "languages: [unclosed\n",
		"bad pattern": "include:\n  - \"src/[\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescope.yaml"), []byte(content), 0644))
			_, err := LoadProjectConfig(dir)
			assert.Error(t, err)
		})
	}
}

func TestSaveProjectConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultProjectConfig()
	cfg.Languages = []string{"rust"}

	require.NoError(t, SaveProjectConfig(dir, cfg))

	loaded, err := LoadProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".codescope.yaml"), []byte("version: \"1.0\"\n"), 0644))

	found, err := FindProjectConfig(nested)
	require.NoError(t, err)

	want, err := filepath.Abs(filepath.Join(root, ".codescope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, want, found)
}

func TestProjectConfig_Merge(t *testing.T) {
	cfg := DefaultProjectConfig()
	cfg.Merge(&ProjectConfig{
		Languages:  []string{"java"},
		Thresholds: Thresholds{AvgComplexity: 5},
	})

	assert.Equal(t, []string{"java"}, cfg.Languages)
	assert.Equal(t, 5.0, cfg.Thresholds.AvgComplexity)
	assert.Equal(t, 20, cfg.Thresholds.MaxComplexity)

	cfg.Merge(nil)
	assert.Equal(t, []string{"java"}, cfg.Languages)
}

func TestProjectConfig_Matches(t *testing.T) {
	cfg := DefaultProjectConfig()
	cfg.Include = []string{"src/**", "*.py"}

	tests := []struct {
		path string
		want bool
	}{
		{"src/app/main.go", true},
		{"setup.py", true},
		{"docs/readme.md", false},
		{"src/node_modules/lib/index.js", false},
		{"./src/util.ts", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Matches(tt.path))
		})
	}

	all := DefaultProjectConfig()
	assert.True(t, all.Matches("anything/at/all.rb"))
	assert.False(t, all.Matches(".git/config"))
}
