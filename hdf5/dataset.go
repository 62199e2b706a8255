package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/mat2img/internal/dtype"
	"github.com/robert-malhotra/mat2img/internal/layout"
	"github.com/robert-malhotra/mat2img/internal/message"
	"github.com/robert-malhotra/mat2img/internal/object"
)

// Dataset is an HDF5 dataset.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
}

func newDataset(f *File, p string, header *object.Header) (*Dataset, error) {
	ds := &Dataset{
		file:      f,
		path:      p,
		header:    header,
		dataspace: header.Dataspace(),
		datatype:  header.Datatype(),
	}
	if ds.dataspace == nil || ds.datatype == nil {
		return nil, fmt.Errorf("%s: dataset without dataspace or datatype", p)
	}
	return ds, nil
}

// Name returns the last component of the dataset's path.
func (d *Dataset) Name() string {
	return path.Base(d.path)
}

// Path returns the absolute path of the dataset.
func (d *Dataset) Path() string {
	return d.path
}

// Shape returns the dimensions, slowest varying first. A scalar dataset
// has no dimensions.
func (d *Dataset) Shape() []uint64 {
	return append([]uint64(nil), d.dataspace.Dimensions...)
}

// NumElements returns the number of elements.
func (d *Dataset) NumElements() uint64 {
	return d.dataspace.NumElements()
}

// Datatype returns the element type.
func (d *Dataset) Datatype() *message.Datatype {
	return d.datatype
}

// ReadRaw returns the dataset's bytes in row-major order.
func (d *Dataset) ReadRaw() ([]byte, error) {
	data, err := layout.Read(d.file.reader, layout.Dataset{
		Layout:    d.header.DataLayout(),
		Dataspace: d.dataspace,
		Datatype:  d.datatype,
		Filters:   d.header.FilterPipeline(),
		Fill:      d.header.FillValue(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return data, nil
}

// ReadFloat64 reads a numeric dataset as float64 values.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	data, err := d.ReadRaw()
	if err != nil {
		return nil, err
	}
	values, err := dtype.Float64s(d.datatype, data, int(d.NumElements()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return values, nil
}

// ReadComplex reads a dataset of {real, imag} compounds.
func (d *Dataset) ReadComplex() (re, im []float64, err error) {
	data, err := d.ReadRaw()
	if err != nil {
		return nil, nil, err
	}
	re, im, err = dtype.Complex(d.datatype, data, int(d.NumElements()))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", d.path, err)
	}
	return re, im, nil
}

// IsComplex reports whether elements are {real, imag} compounds.
func (d *Dataset) IsComplex() bool {
	if d.datatype.Class != message.ClassCompound {
		return false
	}
	_, re := d.datatype.Member("real")
	_, im := d.datatype.Member("imag")
	return re && im
}

// Attrs returns the names of the dataset's attributes.
func (d *Dataset) Attrs() []string {
	return attrNames(d.header)
}

// Attr returns the named attribute.
func (d *Dataset) Attr(name string) (*Attribute, error) {
	return findAttr(d.file, d.header, d.path, name)
}
