// Package container opens MAT-files of either encoding and checks that a
// v7.3 file carries the record group.
package container

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/robert-malhotra/mat2img/mat"
)

// RecordName is the top-level variable every input must hold.
const RecordName = "cjdata"

var (
	ErrUnsupportedLegacyVersion = errors.New("unsupported MAT-file version")
	ErrSchemaMissing            = errors.New("record group missing")
	ErrDecodeFailed             = errors.New("decoding failed")
	ErrFieldNotFound            = errors.New("field not found")
)

// ReadError reports a file that could not be opened as a container. Kind
// is one of ErrUnsupportedLegacyVersion, ErrSchemaMissing or
// ErrDecodeFailed.
type ReadError struct {
	Kind error
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *ReadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reader opens containers from a filesystem.
type Reader struct {
	fs afero.Fs
}

func NewReader(fs afero.Fs) *Reader {
	return &Reader{fs: fs}
}

// Open reads the file at path and decodes its record variable. Other
// variables are not decoded.
func (r *Reader) Open(path string) (*Handle, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, &ReadError{Kind: ErrDecodeFailed, Path: path, Err: err}
	}
	f, err := mat.Decode(data, mat.WithVariables(RecordName))
	switch {
	case errors.Is(err, mat.ErrUnsupportedVersion):
		return nil, &ReadError{Kind: ErrUnsupportedLegacyVersion, Path: path, Err: err}
	case err != nil:
		return nil, &ReadError{Kind: ErrDecodeFailed, Path: path, Err: err}
	}
	if f.Encoding == mat.EncodingHierarchicalV73 {
		v, ok := f.Variable(RecordName)
		if !ok {
			return nil, &ReadError{Kind: ErrSchemaMissing, Path: path}
		}
		if _, ok := v.(*mat.Struct); !ok {
			return nil, &ReadError{Kind: ErrSchemaMissing, Path: path,
				Err: fmt.Errorf("%s is %s, not a group", RecordName, v.ClassName())}
		}
	}
	return &Handle{path: path, file: f}, nil
}

// Handle is a decoded container. It lives for one file's processing.
type Handle struct {
	path string
	file *mat.File
}

func (h *Handle) Path() string { return h.path }

func (h *Handle) Encoding() mat.Encoding {
	if h.file == nil {
		return 0
	}
	return h.file.Encoding
}

// File returns the decoded record variable.
func (h *Handle) File() *mat.File { return h.file }

// Field resolves a variable and a chain of struct fields.
func (h *Handle) Field(path ...string) (mat.Value, error) {
	if h.file == nil {
		return nil, fmt.Errorf("%s: %w: handle released", h.path, ErrFieldNotFound)
	}
	v, err := h.file.Lookup(path...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFieldNotFound, err)
	}
	return v, nil
}

// Release drops the decoded data.
func (h *Handle) Release() {
	h.file = nil
}
