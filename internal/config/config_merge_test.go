package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFilesReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	opts, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)
}

func TestLoad_ProjectOverridesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".lcfgscan.kdl"), []byte(`
validator_threshold 1024
exclude {
    "**/*.bak"
}
`), 0o644))

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ".lcfgscan.kdl"), []byte(`
validator_threshold 4096
`), 0o644))

	opts, err := Load(project)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), opts.ValidatorThreshold)
	// Project config didn't specify exclude, so home's list survives.
	assert.Equal(t, []string{"**/*.bak"}, opts.Exclude)
}

func TestMergeOptions_ExcludeReplacesWhenSpecified(t *testing.T) {
	base := Options{Exclude: []string{"a"}}
	override := Options{Exclude: []string{"b", "c"}}
	merged := mergeOptions(base, override)
	assert.Equal(t, []string{"b", "c"}, merged.Exclude)
}
