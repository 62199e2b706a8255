package cli

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/mat2img/mat"
)

func TestInspectCmd_Use(t *testing.T) {
	assert.Equal(t, "inspect <file.mat>", inspectCmd.Use)
}

func TestInspectCmd(t *testing.T) {
	t.Run("Should print the variable tree of a legacy file", func(t *testing.T) {
		fs := useMemFs(t)
		writeRecords(t, fs, "/in", mat.EncodingLegacy, 1)

		stdout, _, err := execute(t, "inspect", "/in/1.mat")

		require.NoError(t, err)
		assert.Contains(t, stdout, "/in/1.mat (legacy)")
		assert.Contains(t, stdout, "  cjdata: 1x1 struct\n")
		assert.Contains(t, stdout, "    label: 1x1 double = 1\n")
		assert.Contains(t, stdout, "    PID: 1x6 char = \"100001\"\n")
		assert.Contains(t, stdout, "    image: 16x16 int16\n")
		assert.Contains(t, stdout, "    tumorMask: 16x16 logical\n")
	})

	t.Run("Should print the variable tree of a v7.3 file", func(t *testing.T) {
		fs := useMemFs(t)
		writeRecords(t, fs, "/in", mat.EncodingHierarchicalV73, 1)

		stdout, _, err := execute(t, "inspect", "/in/1.mat")

		require.NoError(t, err)
		assert.Contains(t, stdout, "/in/1.mat (v7.3)")
		assert.Contains(t, stdout, "    image: 16x16 int16\n")
	})

	t.Run("Should dump the HDF5 objects of a v7.3 file", func(t *testing.T) {
		fs := useMemFs(t)
		writeRecords(t, fs, "/in", mat.EncodingHierarchicalV73, 1)

		stdout, _, err := execute(t, "inspect", "--hdf5", "/in/1.mat")

		require.NoError(t, err)
		assert.Contains(t, stdout, "User block: 512 bytes")
		assert.Contains(t, stdout, `Group "/cjdata"`)
		assert.Contains(t, stdout, `Dataset "/cjdata/image": shape [16 16]`)
	})

	t.Run("Should fail on a file that is not a MAT-file", func(t *testing.T) {
		fs := useMemFs(t)
		require.NoError(t, afero.WriteFile(fs, "/bad.mat", []byte("nope"), 0o644))

		_, _, err := execute(t, "inspect", "/bad.mat")

		assert.Error(t, err)
	})

	t.Run("Should require one argument", func(t *testing.T) {
		_, _, err := execute(t, "inspect")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "accepts 1 arg(s)")
	})
}
