package mat

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/robert-malhotra/mat2img/hdf5"
)

// Encoding identifies the on-disk format of a MAT-file.
type Encoding int

const (
	// EncodingLegacy is the level 5 format of MATLAB v5 to v7.
	EncodingLegacy Encoding = iota + 1
	// EncodingHierarchicalV73 is the HDF5 based format of MATLAB v7.3.
	EncodingHierarchicalV73
)

func (e Encoding) String() string {
	switch e {
	case EncodingLegacy:
		return "legacy"
	case EncodingHierarchicalV73:
		return "v7.3"
	}
	return fmt.Sprintf("encoding(%d)", int(e))
}

// ParseEncoding accepts "legacy" or "v5" and "v7.3", "v73" or "hdf5".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "legacy", "v5":
		return EncodingLegacy, nil
	case "v7.3", "v73", "hdf5":
		return EncodingHierarchicalV73, nil
	}
	return 0, fmt.Errorf("unknown MAT encoding %q", s)
}

// Variable is a named top-level array.
type Variable struct {
	Name  string
	Value Value
	// Global is set for variables saved from the global workspace.
	Global bool
}

// File is a decoded MAT-file.
type File struct {
	Encoding Encoding
	// Header is the descriptive text of the file header.
	Header    string
	Variables []Variable
}

// Variable returns the named top-level variable.
func (f *File) Variable(name string) (Value, bool) {
	for _, v := range f.Variables {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// Lookup resolves a variable and a chain of struct fields. Each struct on
// the way is entered at its first element.
func (f *File) Lookup(path ...string) (Value, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	v, ok := f.Variable(path[0])
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path[0])
	}
	for i, name := range path[1:] {
		s, ok := v.(*Struct)
		if !ok {
			return nil, fmt.Errorf("%w: %s is a %s, not a struct", ErrNotFound, strings.Join(path[:i+1], "."), v.ClassName())
		}
		if v, ok = s.Field(name, 0); !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(path[:i+2], "."))
		}
	}
	return v, nil
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeOptions)

type decodeOptions struct {
	names []string
}

// wants reports whether the top-level variable name should be decoded.
func (o decodeOptions) wants(name string) bool {
	return len(o.names) == 0 || slices.Contains(o.names, name)
}

// WithVariables decodes only the named top-level variables. Other
// variables are skipped before their contents are parsed, so damage
// confined to them does not fail the decode. Level 5 variables inside
// a corrupt miCOMPRESSED element cannot be named and still fail it.
func WithVariables(names ...string) DecodeOption {
	return func(o *decodeOptions) { o.names = append(o.names, names...) }
}

// Decode reads a MAT-file in either encoding.
func Decode(data []byte, opts ...DecodeOption) (*File, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}
	f, err := decodeLegacy(data, o)
	if err == nil || !errors.Is(err, ErrUnsupportedVersion) {
		return f, err
	}
	f, herr := decodeV73(data, o)
	if herr != nil {
		if errors.Is(herr, hdf5.ErrNotHDF5) {
			return nil, err
		}
		return nil, herr
	}
	return f, nil
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeOptions)

type encodeOptions struct {
	compress  bool
	bigEndian bool
	checksums bool
}

// WithCompression compresses variables: miCOMPRESSED elements in level 5
// files and shuffled, deflated chunks in v7.3 files.
func WithCompression() EncodeOption {
	return func(o *encodeOptions) { o.compress = true }
}

// WithChecksums adds a Fletcher-32 checksum to every v7.3 dataset. Level
// 5 files carry no checksums and ignore it.
func WithChecksums() EncodeOption {
	return func(o *encodeOptions) { o.checksums = true }
}

// WithBigEndian writes level 5 files in big-endian byte order.
func WithBigEndian() EncodeOption {
	return func(o *encodeOptions) { o.bigEndian = true }
}

// Encode serialises f in f.Encoding. A zero Encoding writes a level 5
// file.
func Encode(f *File, opts ...EncodeOption) ([]byte, error) {
	var o encodeOptions
	for _, opt := range opts {
		opt(&o)
	}
	switch f.Encoding {
	case 0, EncodingLegacy:
		return encodeLegacy(f, o)
	case EncodingHierarchicalV73:
		return encodeV73(f, o)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, f.Encoding)
}
