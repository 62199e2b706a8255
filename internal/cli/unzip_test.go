package cli

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnzipCmd(t *testing.T) {
	t.Run("Should extract archives next to themselves by default", func(t *testing.T) {
		fs := useMemFs(t)
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("1.mat")
		require.NoError(t, err)
		_, err = w.Write([]byte("content"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, afero.WriteFile(fs, "/data/bundle.zip", buf.Bytes(), 0o644))

		stdout, _, err := execute(t, "unzip", "/data")

		require.NoError(t, err)
		assert.Contains(t, stdout, "Extracted 1 archive(s) into /data")
		got, err := afero.ReadFile(fs, "/data/1.mat")
		require.NoError(t, err)
		assert.Equal(t, "content", string(got))
	})

	t.Run("Should fail on a missing directory", func(t *testing.T) {
		useMemFs(t)

		_, _, err := execute(t, "unzip", "/missing", "-o", "/out")

		assert.Error(t, err)
	})
}
