package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"linux", "macos", "windows"} {
		p, err := For(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
	}

	_, err := For("plan9")
	assert.ErrorContains(t, err, `unsupported operating system "plan9"`)
}

func TestInstallNativePackages(t *testing.T) {
	t.Parallel()

	linux, err := For("linux")
	require.NoError(t, err)
	cmd := linux.InstallNativePackages([]string{"graphviz", "pandoc"})
	assert.Equal(t, "sudo", cmd.Name)
	assert.Equal(t, []string{"apt-get", "install", "-y", "graphviz", "pandoc"}, cmd.Args)

	windows, err := For("windows")
	require.NoError(t, err)
	cmd = windows.InstallNativePackages([]string{"graphviz"})
	assert.Equal(t, "choco", cmd.Name)
	assert.Equal(t, []string{"install", "-y", "graphviz"}, cmd.Args)
}

func TestPipCommand(t *testing.T) {
	t.Parallel()

	macos, err := For("macos")
	require.NoError(t, err)
	cmd := macos.PipCommand("install", "-e", ".")
	assert.Equal(t, "python3", cmd.Name)
	assert.Equal(t, []string{"-m", "pip", "install", "-e", "."}, cmd.Args)

	windows, err := For("windows")
	require.NoError(t, err)
	assert.Equal(t, "python", windows.Python(), "windows uses the plain launcher name")
}
