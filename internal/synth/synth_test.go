package synth

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/mat2img/mat"
)

func TestWrite(t *testing.T) {
	for _, enc := range []mat.Encoding{mat.EncodingLegacy, mat.EncodingHierarchicalV73} {
		t.Run("Should write decodable "+enc.String()+" records", func(t *testing.T) {
			fs := afero.NewMemMapFs()
			opts := Options{Encoding: enc, Count: 4, Size: 16, Labels: 3, Seed: 7, Compress: true, Workers: 2}

			paths, err := Write(t.Context(), fs, "/synth", opts)

			require.NoError(t, err)
			require.Len(t, paths, 4)
			assert.Equal(t, "/synth/4.mat", paths[3])
			data, err := afero.ReadFile(fs, paths[3])
			require.NoError(t, err)
			f, err := mat.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, enc, f.Encoding)
			label, err := f.Lookup("cjdata", "label")
			require.NoError(t, err)
			assert.Equal(t, []float64{1}, label.(*mat.Numeric).Real)
			image, err := f.Lookup("cjdata", "image")
			require.NoError(t, err)
			assert.Equal(t, []int{16, 16}, image.Dims())
		})
	}

	t.Run("Should reject an empty batch", func(t *testing.T) {
		_, err := Write(t.Context(), afero.NewMemMapFs(), "/synth", Options{Size: 4})
		assert.Error(t, err)
	})
}

func TestRecordDeterministic(t *testing.T) {
	opts := Options{Encoding: mat.EncodingLegacy, Size: 8, Labels: 2, Seed: 3}
	assert.Equal(t, Record(5, opts), Record(5, opts))
	assert.NotEqual(t, Record(5, opts), Record(6, opts))
	assert.Equal(t, 1, Label(5, opts))
	assert.Equal(t, 2, Label(6, opts))
}
