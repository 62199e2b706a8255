package mat

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/robert-malhotra/mat2img/hdf5"
	"github.com/robert-malhotra/mat2img/internal/dtype"
	"github.com/robert-malhotra/mat2img/internal/mat5"
	"github.com/robert-malhotra/mat2img/internal/message"
)

const (
	defaultV73Header = "MATLAB 7.3 MAT-file, written by mat2img, HDF5 schema 1.00 ."
	v73Compression   = 3
	// v73ChunkBytes is the chunk size compressed datasets aim for.
	v73ChunkBytes = 1 << 20
	// v73MaxChunks is the most chunks the writer's single-node index holds.
	v73MaxChunks = 64
)

// hdf5Types maps numeric classes to the HDF5 type of their samples.
var hdf5Types = map[Class]func() *message.Datatype{
	ClassDouble: func() *message.Datatype { return message.NewFloat(8) },
	ClassSingle: func() *message.Datatype { return message.NewFloat(4) },
	ClassInt8:   func() *message.Datatype { return message.NewInteger(1, true) },
	ClassUint8:  func() *message.Datatype { return message.NewInteger(1, false) },
	ClassInt16:  func() *message.Datatype { return message.NewInteger(2, true) },
	ClassUint16: func() *message.Datatype { return message.NewInteger(2, false) },
	ClassInt32:  func() *message.Datatype { return message.NewInteger(4, true) },
	ClassUint32: func() *message.Datatype { return message.NewInteger(4, false) },
	ClassInt64:  func() *message.Datatype { return message.NewInteger(8, true) },
	ClassUint64: func() *message.Datatype { return message.NewInteger(8, false) },
}

func encodeV73(f *File, o encodeOptions) ([]byte, error) {
	text := f.Header
	if text == "" {
		text = defaultV73Header
	}
	h := mat5.Header{Text: text, Version: mat5.Version73, ByteOrder: binary.LittleEndian}
	w := hdf5.NewWriter(hdf5.WithUserBlock(h.Encode()))

	vw := v73Writer{compress: o.compress, checksums: o.checksums}
	for _, v := range f.Variables {
		if v.Name == "" || hidden(v.Name) {
			return nil, fmt.Errorf("%w: variable name %q", ErrUnsupported, v.Name)
		}
		if err := vw.write(w.Root(), v.Name, v.Value, 0); err != nil {
			return nil, fmt.Errorf("%s: %w", v.Name, err)
		}
	}
	return w.Bytes()
}

type v73Writer struct {
	compress  bool
	checksums bool
}

func (vw v73Writer) write(g *hdf5.GroupWriter, name string, v Value, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: structs nested deeper than %d", ErrUnsupported, maxDepth)
	}
	if err := checkDims(v); err != nil {
		return err
	}
	if NumElements(v.Dims()) == 0 {
		return vw.writeEmpty(g, name, v)
	}

	switch v := v.(type) {
	case *Numeric:
		return vw.writeNumeric(g, name, v)
	case *Char:
		if len(v.Data) != NumElements(v.Dimensions) {
			return fmt.Errorf("%w: %d characters for dimensions %v", ErrUnsupported, len(v.Data), v.Dimensions)
		}
		units := make([]float64, len(v.Data))
		for i, c := range v.Data {
			if c > 0xFFFF {
				return fmt.Errorf("%w: character %U outside the basic plane", ErrUnsupported, c)
			}
			units[i] = float64(c)
		}
		dt := message.NewInteger(2, false)
		data, err := dtype.EncodeFloat64s(dt, units)
		if err != nil {
			return err
		}
		ds, err := vw.dataset(g, name, dt, v.Dimensions, data)
		if err != nil {
			return err
		}
		ds.SetStringAttr(attrClass, "char")
		return ds.SetNumericAttr(attrIntDecode, message.NewInteger(4, true), 2)
	case *Struct:
		if len(v.Elements) != 1 {
			return fmt.Errorf("%w: struct arrays of %d elements", ErrUnsupported, len(v.Elements))
		}
		sub, err := g.CreateGroup(name)
		if err != nil {
			return err
		}
		sub.SetStringAttr(attrClass, "struct")
		sub.SetVarLenStringsAttr(attrFields, v.Fields)
		for _, field := range v.Fields {
			fv, ok := v.Elements[0][field]
			if !ok {
				fv = &Numeric{Class: ClassDouble, Dimensions: []int{0, 0}}
			}
			if err := vw.write(sub, field, fv, depth+1); err != nil {
				return fmt.Errorf("field %s: %w", field, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: cannot write %s arrays to a v7.3 file", ErrUnsupported, v.ClassName())
}

func (vw v73Writer) writeNumeric(g *hdf5.GroupWriter, name string, v *Numeric) error {
	newType, ok := hdf5Types[v.Class]
	if !ok {
		return fmt.Errorf("%w: numeric class %s", ErrUnsupported, v.Class)
	}
	if len(v.Real) != NumElements(v.Dimensions) || (v.Imag != nil && len(v.Imag) != len(v.Real)) {
		return fmt.Errorf("%w: %d values for dimensions %v", ErrUnsupported, len(v.Real), v.Dimensions)
	}
	dt := newType()
	if v.Logical {
		dt = message.NewInteger(1, false)
	}

	var data []byte
	var err error
	if v.IsComplex() {
		data, err = dtype.EncodeComplex(dt, v.Real, v.Imag)
		dt = message.NewCompound([]string{"real", "imag"}, []*message.Datatype{dt, dt})
	} else {
		data, err = dtype.EncodeFloat64s(dt, v.Real)
	}
	if err != nil {
		return err
	}
	ds, err := vw.dataset(g, name, dt, v.Dimensions, data)
	if err != nil {
		return err
	}
	ds.SetStringAttr(attrClass, v.ClassName())
	if v.Logical {
		return ds.SetNumericAttr(attrIntDecode, message.NewInteger(4, true), 1)
	}
	return nil
}

// writeEmpty stores an empty array as the vector of its dimensions.
func (vw v73Writer) writeEmpty(g *hdf5.GroupWriter, name string, v Value) error {
	switch v.(type) {
	case *Numeric, *Char, *Struct, *Cell:
	default:
		return fmt.Errorf("%w: cannot write %s arrays to a v7.3 file", ErrUnsupported, v.ClassName())
	}
	dims := v.Dims()
	values := make([]float64, len(dims))
	for i, d := range dims {
		values[i] = float64(d)
	}
	dt := message.NewInteger(8, false)
	data, err := dtype.EncodeFloat64s(dt, values)
	if err != nil {
		return err
	}
	ds, err := g.CreateDataset(name, dt, []uint64{uint64(len(dims))}, data)
	if err != nil {
		return err
	}
	ds.SetStringAttr(attrClass, v.ClassName())
	return ds.SetNumericAttr(attrEmpty, message.NewInteger(1, false), 1)
}

// dataset creates a dataset with MATLAB dimensions, which HDF5 stores
// slowest first.
func (vw v73Writer) dataset(g *hdf5.GroupWriter, name string, dt *message.Datatype, dims []int, data []byte) (*hdf5.DatasetWriter, error) {
	shape := make([]uint64, len(dims))
	for i, d := range dims {
		shape[len(dims)-1-i] = uint64(d)
	}
	var opts []hdf5.DatasetOption
	if vw.compress {
		opts = append(opts,
			hdf5.WithChunks(chunkShape(shape, uint64(dt.Size))...),
			hdf5.WithShuffle(),
			hdf5.WithCompression(v73Compression))
	}
	if vw.checksums {
		opts = append(opts, hdf5.WithFletcher32())
	}
	return g.CreateDataset(name, dt, shape, data, opts...)
}

// chunkShape splits a non-empty shape along its slowest dimension into
// chunks of about v73ChunkBytes.
func chunkShape(shape []uint64, size uint64) []uint64 {
	total := size
	for _, d := range shape {
		total *= d
	}
	k := min(max(total/v73ChunkBytes, 1), v73MaxChunks, shape[0])
	chunks := slices.Clone(shape)
	chunks[0] = (shape[0] + k - 1) / k
	return chunks
}
