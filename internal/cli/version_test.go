package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Output(t *testing.T) {
	old := version
	version = "1.2.3"
	t.Cleanup(func() { version = old })

	stdout, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "mat2img version 1.2.3\n", stdout)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"convert", "inspect", "synth", "unzip", "version"} {
		assert.Contains(t, names, want)
	}
}
