package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/minisql/pkg/core"
)

// File format, little endian, no padding:
//
//	magic       [7]byte "GPATBL\0"
//	version     u32
//	field_count u64
//	alive_count u64
//	next_rowid  u64
//	fields      field_count × { name_len u32, name, type i32, is_primary u8 }
//	rows        alive_count × { row_id u64, values }
//
// Values are i64 for INT, f64 for FLOAT and { len u32, bytes } for STRING.
// A file with field_count 0 ends after the header.
const (
	magic         = "GPATBL\x00"
	formatVersion = 1

	maxFields    = 1 << 16
	maxNameLen   = 1 << 16
	maxStringLen = 1 << 30
)

var byteOrder = binary.LittleEndian

// Open loads a table file. A missing file yields a fresh schema-less table
// whose header is written immediately.
func Open(path string) (*Table, error) {
	name, err := NameFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		t := newTable(name, path, nil)
		if err := t.Flush(); err != nil {
			return nil, fmt.Errorf("failed to create table file %s: %w", path, err)
		}
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t := newTable(name, path, nil)
	if err := t.decode(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return t, nil
}

// Flush writes the table to its file if it is file-backed, creating the
// parent directories as needed. The data goes to a temporary file in the
// same directory which then replaces the old file.
func (t *Table) Flush() error {
	if t.path == "" {
		return nil
	}
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(t.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := bufio.NewWriter(tmp)
	if _, err := t.WriteTo(w); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", t.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", t.path, err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", t.path, err)
	}
	t.dirty = false
	return nil
}

// Close flushes a dirty file-backed table.
func (t *Table) Close() error {
	if t.dirty && t.path != "" {
		return t.Flush()
	}
	return nil
}

// WriteTo encodes the table in file format. Rows are written in logical
// order, so a reload scans them in the same order.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	e := &encoder{w: w}
	e.bytes([]byte(magic))
	e.u32(formatVersion)
	e.u64(uint64(len(t.schema)))
	if len(t.schema) == 0 {
		e.u64(0)
	} else {
		e.u64(uint64(t.aliveCount))
	}
	e.u64(t.nextRowID)
	if len(t.schema) == 0 {
		return e.n, e.err
	}

	for _, f := range t.schema {
		e.str(f.Name)
		e.u32(uint32(f.Type))
		if f.Primary {
			e.bytes([]byte{1})
		} else {
			e.bytes([]byte{0})
		}
	}
	t.Scan(func(id uint64, values []core.Value) bool {
		e.u64(id)
		for _, v := range values {
			e.value(v)
		}
		return e.err == nil
	})
	return e.n, e.err
}

// ReadFrom replaces the table contents with a table decoded from r. The
// table keeps its name and path.
func (t *Table) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	fresh := newTable(t.name, t.path, nil)
	if err := fresh.decode(cr); err != nil {
		return cr.n, err
	}
	*t = *fresh
	return cr.n, nil
}

func (t *Table) decode(r io.Reader) error {
	d := &decoder{r: r}
	head := d.bytes(len(magic))
	if d.err != nil {
		return fmt.Errorf("%w: short header", ErrBadMagic)
	}
	if !bytes.Equal(head, []byte(magic)) {
		return ErrBadMagic
	}
	if v := d.u32(); d.err == nil && v != formatVersion {
		return fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	fieldCount := d.u64()
	aliveCount := d.u64()
	nextRowID := d.u64()
	if d.err != nil {
		return d.fail()
	}
	if nextRowID == 0 {
		nextRowID = 1
	}
	if fieldCount == 0 {
		t.nextRowID = nextRowID
		return nil
	}
	if fieldCount > maxFields {
		return fmt.Errorf("%w: %d fields", ErrCorrupt, fieldCount)
	}

	schema := make(core.Schema, fieldCount)
	for i := range schema {
		schema[i].Name = d.str(maxNameLen)
		schema[i].Type = core.FieldType(int32(d.u32()))
		schema[i].Primary = d.bytes(1)[0] != 0
		if d.err != nil {
			return d.fail()
		}
	}
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	t.schema = schema
	t.pk = schema.Primary()
	t.nextRowID = nextRowID

	t.rows = make([]Row, 0, min(aliveCount, 1<<20))
	for i := uint64(0); i < aliveCount; i++ {
		row := Row{ID: d.u64(), Values: make([]core.Value, len(schema))}
		for j, f := range schema {
			row.Values[j] = d.value(f.Type)
		}
		if d.err != nil {
			return d.fail()
		}
		t.rows = append(t.rows, row)
	}
	t.rebuildLinks()
	return t.index()
}

// ---------- Encoding helpers ----------

// encoder writes fixed-width fields and latches the first error.
type encoder struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

func (e *encoder) bytes(b []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(b)
	e.n += int64(n)
	e.err = err
}

func (e *encoder) u32(v uint32) {
	byteOrder.PutUint32(e.buf[:4], v)
	e.bytes(e.buf[:4])
}

func (e *encoder) u64(v uint64) {
	byteOrder.PutUint64(e.buf[:8], v)
	e.bytes(e.buf[:8])
}

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.bytes([]byte(s))
}

func (e *encoder) value(v core.Value) {
	switch v.Type {
	case core.TypeInt:
		e.u64(uint64(v.Int))
	case core.TypeFloat:
		e.u64(math.Float64bits(v.Float))
	case core.TypeString:
		e.str(v.Str)
	default:
		panic(fmt.Sprintf("storage: unknown value type %d", v.Type))
	}
}

// decoder reads fixed-width fields and latches the first error.
type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) fail() error {
	if errors.Is(d.err, io.EOF) || errors.Is(d.err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: unexpected end of file", ErrCorrupt)
	}
	if errors.Is(d.err, ErrCorrupt) {
		return d.err
	}
	return fmt.Errorf("%w: %w", ErrCorrupt, d.err)
}

func (d *decoder) bytes(n int) []byte {
	b := make([]byte, n)
	if d.err != nil {
		return b
	}
	_, d.err = io.ReadFull(d.r, b)
	return b
}

func (d *decoder) u32() uint32 {
	return byteOrder.Uint32(d.bytes(4))
}

func (d *decoder) u64() uint64 {
	return byteOrder.Uint64(d.bytes(8))
}

func (d *decoder) str(limit int) string {
	n := d.u32()
	if d.err != nil {
		return ""
	}
	if int64(n) > int64(limit) {
		d.err = fmt.Errorf("%w: string of %d bytes", ErrCorrupt, n)
		return ""
	}
	return string(d.bytes(int(n)))
}

func (d *decoder) value(t core.FieldType) core.Value {
	switch t {
	case core.TypeInt:
		return core.IntValue(int64(d.u64()))
	case core.TypeFloat:
		return core.FloatValue(math.Float64frombits(d.u64()))
	default:
		return core.StringValue(d.str(maxStringLen))
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
