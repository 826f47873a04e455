package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PathSources(t *testing.T) {
	t.Parallel()

	t.Run("long flag", func(t *testing.T) {
		cfg, exit, err := Parse([]string{"-pipeline", "ci.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "ci.hcl", cfg.PipelinePath)
	})

	t.Run("shorthand flag", func(t *testing.T) {
		cfg, exit, err := Parse([]string{"-p", "ci.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "ci.hcl", cfg.PipelinePath)
	})

	t.Run("positional argument", func(t *testing.T) {
		cfg, exit, err := Parse([]string{"ci.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "ci.hcl", cfg.PipelinePath)
	})

	t.Run("long flag wins over positional", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-pipeline", "a.hcl", "b.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.PipelinePath)
	})
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cfg, exit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, _, err := Parse([]string{"ci.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 0, cfg.StatusPort)
	assert.False(t, cfg.DryRun)
}

func TestParse_Validation(t *testing.T) {
	t.Parallel()

	t.Run("bad log format", func(t *testing.T) {
		_, _, err := Parse([]string{"-log-format", "yaml", "ci.hcl"}, &bytes.Buffer{})
		require.Error(t, err)
		exitErr, ok := err.(*ExitError)
		require.True(t, ok)
		assert.Equal(t, 2, exitErr.Code)
		assert.Contains(t, exitErr.Message, "invalid log-format")
	})

	t.Run("bad log level", func(t *testing.T) {
		_, _, err := Parse([]string{"-log-level", "verbose", "ci.hcl"}, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log-level")
	})

	t.Run("case is normalized", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-log-level", "DEBUG", "-log-format", "TEXT", "ci.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
	})
}

func TestParse_Flags(t *testing.T) {
	t.Parallel()

	cfg, _, err := Parse([]string{"-workers", "8", "-status-port", "8080", "-dry-run", "ci.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 8080, cfg.StatusPort)
	assert.True(t, cfg.DryRun)
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
}
