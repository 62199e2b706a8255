// Package synth writes synthetic labeled MAT-files for smoke runs.
package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/mat2img/mat"
)

type Options struct {
	Encoding mat.Encoding
	Count    int
	// Size is the side of the square image.
	Size     int
	Labels   int
	Seed     uint64
	Compress bool
	Workers  int

	// Checksums adds Fletcher-32 checksums to v7.3 datasets.
	Checksums bool
}

func DefaultOptions() Options {
	return Options{
		Encoding: mat.EncodingLegacy,
		Count:    10,
		Size:     512,
		Labels:   3,
		Seed:     1,
		Compress: true,
		Workers:  4,
	}
}

// Label returns the label of file i, counting from 1.
func Label(i int, opts Options) int {
	return (i-1)%max(opts.Labels, 1) + 1
}

// Record builds file i: a bright disk on a noisy background, stored as
// int16 the way scanner exports are.
func Record(i int, opts Options) *mat.File {
	rng := rand.New(rand.NewPCG(opts.Seed, uint64(i)))
	n := opts.Size
	cx, cy := rng.Float64()*float64(n), rng.Float64()*float64(n)
	radius := float64(n) * (0.1 + 0.2*rng.Float64())

	image := &mat.Numeric{Class: mat.ClassInt16, Dimensions: []int{n, n}, Real: make([]float64, n*n)}
	mask := &mat.Numeric{Class: mat.ClassUint8, Dimensions: []int{n, n}, Real: make([]float64, n*n), Logical: true}
	for col := range n {
		for row := range n {
			d := math.Hypot(float64(col)-cx, float64(row)-cy)
			v := 200 + 50*rng.NormFloat64()
			if d < radius {
				v += 600
				mask.Real[col*n+row] = 1
			}
			image.Real[col*n+row] = math.Round(v)
		}
	}
	border := &mat.Numeric{Class: mat.ClassDouble, Dimensions: []int{1, 4},
		Real: []float64{cx, cy, cx + radius, cy}}

	cjdata := mat.NewStruct(
		[]string{"label", "PID", "image", "tumorBorder", "tumorMask"},
		[]mat.Value{
			mat.Scalar(float64(Label(i, opts))),
			mat.NewString(strconv.Itoa(100000 + i)),
			image, border, mask,
		},
	)
	return &mat.File{Encoding: opts.Encoding, Variables: []mat.Variable{{Name: "cjdata", Value: cjdata}}}
}

// Write creates files 1.mat to Count.mat in dir and returns their paths.
func Write(ctx context.Context, fs afero.Fs, dir string, opts Options) ([]string, error) {
	if opts.Count < 1 || opts.Size < 1 {
		return nil, fmt.Errorf("count and size must be positive")
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	var encOpts []mat.EncodeOption
	if opts.Compress {
		encOpts = append(encOpts, mat.WithCompression())
	}
	if opts.Checksums {
		encOpts = append(encOpts, mat.WithChecksums())
	}

	paths := make([]string, opts.Count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i := range paths {
		paths[i] = filepath.Join(dir, strconv.Itoa(i+1)+".mat")
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := mat.Encode(Record(i+1, opts), encOpts...)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", paths[i], err)
			}
			return afero.WriteFile(fs, paths[i], data, 0o644)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
