package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Define an HCL string with a syntax error that is guaranteed to cause a
	// panic during the loading phase inside app.NewApp().
	invalidHCL := `
		pipeline "demo" {
			matrix {
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	args := []string{filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	// Call the run function, which should recover the panic and return it as an error.
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")

	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "failed to parse"), "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_InvalidFlagValue(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, []string{"-log-format", "yaml", "x.hcl"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log-format")
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
pipeline "demo" {
  matrix {
    os          = ["linux"]
    interpreter = ["3.8"]
  }
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(pipelineHCL), 0600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-dry-run", "-log-level", "error", filePath})
	require.NoError(t, err)
	require.Contains(t, out.String(), "linux/3.8/x64")
}
