package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsAppliesDefaultsWithNoArguments(t *testing.T) {
	cfg, rest, err := ParseFlags(nil, os.Stderr)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Empty(t, rest)
}

func TestParseFlagsOverridesDefaultWithExplicitFlag(t *testing.T) {
	cfg, rest, err := ParseFlags([]string{"-opt-level", "2", "-enable-gpu", "input.py"}, os.Stderr)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.OptLevel)
	assert.True(t, cfg.EnableGpuPipeline)
	assert.Equal(t, []string{"input.py"}, rest)
}

func TestParseFlagsLoadsConfigFileThenLetsFlagsOverrideIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte("optLevel: 3\nfastmath: true\nmaxConcurrency: 4\n"), 0o644))

	cfg, _, err := ParseFlags([]string{"-config", path, "-opt-level", "1"}, os.Stderr)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.OptLevel, "explicit flag must win over the file's value")
	assert.True(t, cfg.Fastmath, "value only set by the file must survive")
	assert.Equal(t, uint32(4), cfg.MaxConcurrency)
}

func TestParseFlagsRejectsOutOfRangeOptLevel(t *testing.T) {
	_, _, err := ParseFlags([]string{"-opt-level", "9"}, os.Stderr)
	assert.Error(t, err)
}
