package mat

import (
	"errors"

	"github.com/robert-malhotra/mat2img/internal/mat5"
)

var (
	// ErrUnsupportedVersion is returned when neither the level 5 nor the
	// HDF5 reader recognises the file.
	ErrUnsupportedVersion = mat5.ErrUnsupportedVersion
	ErrNotFound           = errors.New("variable not found")
	ErrUnsupported        = errors.New("unsupported MAT value")
)

const (
	// maxDepth bounds the nesting of structs and cells.
	maxDepth = 64
	// maxFieldlessElements bounds struct arrays without fields, whose
	// elements take no space in the file.
	maxFieldlessElements = 1 << 20
)
