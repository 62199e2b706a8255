package hdf5

import (
	"bytes"
	"fmt"
	"io"
	"math/bits"
	"sort"
	"strings"

	"github.com/robert-malhotra/mat2img/internal/dtype"
	"github.com/robert-malhotra/mat2img/internal/message"
)

// Writer builds an HDF5 file in memory. Objects are serialised by WriteTo.
type Writer struct {
	opts writerOptions
	root *GroupWriter
}

// NewWriter returns a writer holding an empty root group.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{root: newGroupWriter("/")}
	for _, opt := range opts {
		opt(&w.opts)
	}
	return w
}

// Root returns the root group.
func (w *Writer) Root() *GroupWriter {
	return w.root
}

// userBlockSize returns the padded size of the user block, or 0.
func (w *Writer) userBlockSize() int {
	n := len(w.opts.userBlock)
	if n == 0 {
		return 0
	}
	if n <= 512 {
		return 512
	}
	return 1 << bits.Len(uint(n-1))
}

// Bytes serialises the file.
func (w *Writer) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serialises the file to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	body, err := encodeFile(w.root, uint64(w.userBlockSize()))
	if err != nil {
		return 0, err
	}
	block := make([]byte, w.userBlockSize())
	copy(block, w.opts.userBlock)
	n, err := out.Write(block)
	if err != nil {
		return int64(n), err
	}
	m, err := out.Write(body)
	return int64(n + m), err
}

// pendingAttr is an attribute waiting to be written. Variable-length
// string attributes are completed once the global heap is laid out.
type pendingAttr struct {
	msg    *message.Attribute
	varLen []string
}

// attrs is the attribute list shared by groups and datasets.
type attrs struct {
	list []*pendingAttr
}

func (a *attrs) set(p *pendingAttr) {
	for i, old := range a.list {
		if old.msg.Name == p.msg.Name {
			a.list[i] = p
			return
		}
	}
	a.list = append(a.list, p)
}

// SetStringAttr attaches a scalar fixed-length string attribute. The
// string is stored without a terminator, as MATLAB does.
func (a *attrs) SetStringAttr(name, value string) {
	size := max(len(value), 1)
	data := make([]byte, size)
	copy(data, value)
	a.set(&pendingAttr{msg: &message.Attribute{
		Name:      name,
		Datatype:  message.NewString(size, message.PadNullTerm),
		Dataspace: &message.Dataspace{Version: 1, SpaceType: message.DataspaceScalar},
		Data:      data,
	}})
}

// SetNumericAttr attaches a numeric attribute of type dt. A single value
// is stored as a scalar.
func (a *attrs) SetNumericAttr(name string, dt *message.Datatype, values ...float64) error {
	data, err := dtype.EncodeFloat64s(dt, values)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	space := &message.Dataspace{Version: 1, SpaceType: message.DataspaceScalar}
	if len(values) != 1 {
		space = &message.Dataspace{Version: 1, SpaceType: message.DataspaceSimple, Dimensions: []uint64{uint64(len(values))}}
	}
	a.set(&pendingAttr{msg: &message.Attribute{Name: name, Datatype: dt, Dataspace: space, Data: data}})
	return nil
}

// SetVarLenStringsAttr attaches a one-dimensional attribute of
// variable-length sequences of characters, kept in the global heap.
func (a *attrs) SetVarLenStringsAttr(name string, values []string) {
	a.set(&pendingAttr{
		msg: &message.Attribute{
			Name:      name,
			Datatype:  message.NewVarLen(message.NewString(1, message.PadNullTerm), 8),
			Dataspace: &message.Dataspace{Version: 1, SpaceType: message.DataspaceSimple, Dimensions: []uint64{uint64(len(values))}},
		},
		varLen: append([]string(nil), values...),
	})
}

// GroupWriter is a group under construction.
type GroupWriter struct {
	attrs
	path    string
	members map[string]any
}

func newGroupWriter(path string) *GroupWriter {
	return &GroupWriter{path: path, members: make(map[string]any)}
}

// Path returns the group's absolute path.
func (g *GroupWriter) Path() string {
	return g.path
}

func (g *GroupWriter) checkName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: member name %q", ErrInvalidPath, name)
	}
	if _, ok := g.members[name]; ok {
		return fmt.Errorf("%s: member %q already exists", g.path, name)
	}
	return nil
}

// CreateGroup adds a subgroup.
func (g *GroupWriter) CreateGroup(name string) (*GroupWriter, error) {
	if err := g.checkName(name); err != nil {
		return nil, err
	}
	sub := newGroupWriter(JoinPath(g.path, name))
	g.members[name] = sub
	return sub, nil
}

// DatasetWriter is a dataset under construction.
type DatasetWriter struct {
	attrs
	path     string
	datatype *message.Datatype
	dims     []uint64
	data     []byte
	opts     datasetOptions
}

// Path returns the dataset's absolute path.
func (d *DatasetWriter) Path() string {
	return d.path
}

// CreateDataset adds a dataset holding data, which must be row-major
// elements of dt. A nil dims creates a scalar dataset.
func (g *GroupWriter) CreateDataset(name string, dt *message.Datatype, dims []uint64, data []byte, opts ...DatasetOption) (*DatasetWriter, error) {
	if err := g.checkName(name); err != nil {
		return nil, err
	}
	n := uint64(1)
	for _, d := range dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return nil, fmt.Errorf("%s: dimensions %v overflow", JoinPath(g.path, name), dims)
		}
		n = lo
	}
	if hi, want := bits.Mul64(n, uint64(dt.Size)); hi != 0 || uint64(len(data)) != want {
		return nil, fmt.Errorf("%s: %d bytes of data for %v elements of %s, want %d", JoinPath(g.path, name), len(data), dims, dt, want)
	}
	ds := &DatasetWriter{
		path:     JoinPath(g.path, name),
		datatype: dt,
		dims:     append([]uint64(nil), dims...),
		data:     data,
	}
	for _, opt := range opts {
		opt(&ds.opts)
	}
	if ds.chunked() {
		if len(dims) == 0 {
			return nil, fmt.Errorf("%s: a scalar dataset cannot be chunked", ds.path)
		}
		if ds.opts.chunks != nil && len(ds.opts.chunks) != len(dims) {
			return nil, fmt.Errorf("%s: chunk rank %d does not match dataset rank %d", ds.path, len(ds.opts.chunks), len(dims))
		}
	}
	g.members[name] = ds
	return ds, nil
}

func (d *DatasetWriter) chunked() bool {
	o := d.opts
	return o.chunks != nil || o.compression > 0 || o.shuffle || o.fletcher32
}

// chunkDims returns the chunk shape, clipped to the dataset and at least
// one element in every dimension.
func (d *DatasetWriter) chunkDims() []uint64 {
	out := make([]uint64, len(d.dims))
	for i, dim := range d.dims {
		c := dim
		if d.opts.chunks != nil {
			c = min(d.opts.chunks[i], dim)
		}
		out[i] = max(c, 1)
	}
	return out
}

// sortedMembers returns member names in the byte order symbol table
// groups require.
func (g *GroupWriter) sortedMembers() []string {
	names := make([]string, 0, len(g.members))
	for name := range g.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
