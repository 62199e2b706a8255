package cli

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/mat2img/mat"
)

func TestConvertCmd(t *testing.T) {
	t.Run("Should convert a directory and print the summary", func(t *testing.T) {
		fs := useMemFs(t)
		writeRecords(t, fs, "/in", mat.EncodingLegacy, 3)

		stdout, stderr, err := execute(t, "convert", "-i", "/in", "-o", "/out", "--format", "png", "--log-json")

		require.NoError(t, err)
		assert.Contains(t, stdout, "Matched:     3")
		assert.Contains(t, stdout, "Saved:       3")
		assert.Contains(t, stdout, "  label 1: 2")
		assert.Contains(t, stdout, "  label 2: 1")
		assert.Contains(t, stderr, `"msg":"Processing complete!"`)
		for _, path := range []string{"/out/1/1.png", "/out/2/2.png", "/out/1/3.png"} {
			exists, err := afero.Exists(fs, path)
			require.NoError(t, err)
			assert.True(t, exists, path)
		}
	})

	t.Run("Should read settings from a config file", func(t *testing.T) {
		fs := useMemFs(t)
		writeRecords(t, fs, "/in", mat.EncodingHierarchicalV73, 2)
		cfg := "input_dir = \"/in\"\noutput_dir = \"/images\"\nformat = \"bmp\"\n[log]\nlevel = \"disabled\"\n"
		require.NoError(t, afero.WriteFile(fs, "/mat2img.toml", []byte(cfg), 0o644))

		stdout, stderr, err := execute(t, "convert", "--config", "/mat2img.toml")

		require.NoError(t, err)
		assert.Contains(t, stdout, "Saved:       2")
		assert.Empty(t, stderr)
		exists, err := afero.Exists(fs, "/images/2/2.bmp")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Should fail without an input directory", func(t *testing.T) {
		useMemFs(t)

		_, _, err := execute(t, "convert", "-o", "/out")

		assert.Error(t, err)
	})

	t.Run("Should reject an unknown format", func(t *testing.T) {
		useMemFs(t)

		_, _, err := execute(t, "convert", "-i", "/in", "-o", "/out", "--format", "gif")

		assert.Error(t, err)
	})

	t.Run("Should report failed files without failing", func(t *testing.T) {
		fs := useMemFs(t)
		writeRecords(t, fs, "/in", mat.EncodingLegacy, 1)
		require.NoError(t, afero.WriteFile(fs, "/in/2.mat", []byte("garbage"), 0o644))

		stdout, _, err := execute(t, "convert", "-i", "/in", "-o", "/out", "--log-level", "disabled")

		require.NoError(t, err)
		assert.Contains(t, stdout, "Saved:       1")
		assert.Contains(t, stdout, "Failed:      1")
	})
}

func TestChangedFlags(t *testing.T) {
	useMemFs(t)
	fl := convertCmd.Flags()
	t.Cleanup(func() { resetCommand(rootCmd) })
	require.NoError(t, fl.Set("workers", "4"))
	require.NoError(t, fl.Set("skip-existing", "true"))
	require.NoError(t, fl.Set("input", "/data"))

	got, err := changedFlags(fl)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"workers": 4, "skip_existing": true, "input_dir": "/data"}, got)
}
