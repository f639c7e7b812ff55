// Package storage implements the MiniSQL table: a slot-based in-memory row
// store with a doubly linked logical order, primary-key and row-id
// indexes, and a versioned binary file format.
//
// A Table is not safe for concurrent use.
package storage

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/minisql/pkg/core"
)

// Extension is the file extension of table files.
const Extension = ".gpa"

// Row is one physical slot. Next and Prev are row ids (0 = none), not slot
// indexes.
type Row struct {
	ID      uint64
	Next    uint64
	Prev    uint64
	Values  []core.Value
	Expired bool
}

// Table owns a schema and its rows.
type Table struct {
	name   string
	path   string // empty for in-memory tables
	schema core.Schema
	pk     int // primary field position, -1 if none

	rows      []Row
	freeSlots []int
	head      uint64
	tail      uint64

	rowidIndex   map[uint64]int
	primaryIndex map[core.Value]uint64

	nextRowID  uint64
	aliveCount int
	dirty      bool
}

func newTable(name, path string, schema core.Schema) *Table {
	return &Table{
		name:         name,
		path:         path,
		schema:       slices.Clone(schema),
		pk:           schema.Primary(),
		rowidIndex:   make(map[uint64]int),
		primaryIndex: make(map[core.Value]uint64),
		nextRowID:    1,
	}
}

// NewMemory creates an empty table that is never written to disk.
func NewMemory(name string, schema core.Schema) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return newTable(name, "", schema), nil
}

// Create creates an empty file-backed table. Nothing is written until the
// first flush, but the table starts dirty so that it is.
func Create(path string, schema core.Schema) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	name, err := NameFromPath(path)
	if err != nil {
		return nil, err
	}
	t := newTable(name, path, schema)
	t.dirty = true
	return t, nil
}

// NameFromPath derives a table name from a file path ("dir/t.gpa" -> "t").
func NameFromPath(path string) (string, error) {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), Extension) {
		return "", fmt.Errorf("%w: %s", ErrBadExtension, path)
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if !core.IsIdentifier(name) {
		return "", fmt.Errorf("invalid table name %q derived from %s", name, path)
	}
	return name, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Path returns the backing file path, or "" for in-memory tables.
func (t *Table) Path() string { return t.path }

// Schema returns the table schema. Callers must not modify it.
func (t *Table) Schema() core.Schema { return t.schema }

// PrimaryField returns the position of the primary field, or -1.
func (t *Table) PrimaryField() int { return t.pk }

// AliveCount returns the number of live rows.
func (t *Table) AliveCount() int { return t.aliveCount }

// NextRowID returns the id the next insert will receive.
func (t *Table) NextRowID() uint64 { return t.nextRowID }

// RowsPhysicalSize returns the number of physical slots, expired included.
func (t *Table) RowsPhysicalSize() int { return len(t.rows) }

// Dirty reports whether memory diverges from the backing file.
func (t *Table) Dirty() bool { return t.dirty }

// Insert validates and appends a row, reusing the most recently freed slot
// if there is one, and links it at the tail of the logical order. It
// returns the new row id. On error the table is unchanged.
func (t *Table) Insert(values []core.Value) (uint64, error) {
	if len(t.schema) == 0 {
		return 0, ErrNoSchema
	}
	if len(values) != len(t.schema) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrArity, len(values), len(t.schema))
	}
	for i, v := range values {
		if v.Type != t.schema[i].Type {
			return 0, fmt.Errorf("%w: field %s is %s, got %s", ErrTypeMismatch, t.schema[i].Name, t.schema[i].Type, v.Type)
		}
	}
	if t.pk >= 0 {
		if _, dup := t.primaryIndex[values[t.pk]]; dup {
			return 0, fmt.Errorf("%w: %s = %s", ErrDuplicateKey, t.schema[t.pk].Name, values[t.pk].Literal())
		}
	}

	id := t.nextRowID
	t.nextRowID++
	row := Row{ID: id, Prev: t.tail, Values: slices.Clone(values)}

	var slot int
	if n := len(t.freeSlots); n > 0 {
		slot = t.freeSlots[n-1]
		t.freeSlots = t.freeSlots[:n-1]
		t.rows[slot] = row
	} else {
		slot = len(t.rows)
		t.rows = append(t.rows, row)
	}

	if t.tail != 0 {
		t.rows[t.rowidIndex[t.tail]].Next = id
	} else {
		t.head = id
	}
	t.tail = id

	t.rowidIndex[id] = slot
	if t.pk >= 0 {
		t.primaryIndex[row.Values[t.pk]] = id
	}
	t.aliveCount++
	t.dirty = true
	return id, nil
}

// EraseRow removes a live row. Erasing a row that was already erased is a
// no-op; an id that was never issued is ErrRowNotFound.
func (t *Table) EraseRow(id uint64) error {
	slot, ok := t.rowidIndex[id]
	if !ok {
		if id != 0 && id < t.nextRowID {
			return nil
		}
		return fmt.Errorf("%w: id %d", ErrRowNotFound, id)
	}
	row := &t.rows[slot]
	if row.Expired {
		return nil
	}

	if row.Prev != 0 {
		t.rows[t.rowidIndex[row.Prev]].Next = row.Next
	} else {
		t.head = row.Next
	}
	if row.Next != 0 {
		t.rows[t.rowidIndex[row.Next]].Prev = row.Prev
	} else {
		t.tail = row.Prev
	}

	delete(t.rowidIndex, id)
	if t.pk >= 0 {
		delete(t.primaryIndex, row.Values[t.pk])
	}
	row.Expired = true
	row.Next, row.Prev = 0, 0
	t.freeSlots = append(t.freeSlots, slot)
	t.aliveCount--
	t.dirty = true
	return nil
}

// Get returns a copy of the values of a live row.
func (t *Table) Get(id uint64) ([]core.Value, bool) {
	slot, ok := t.rowidIndex[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(t.rows[slot].Values), true
}

// FindPrimary returns the id of the live row whose primary field equals v.
func (t *Table) FindPrimary(v core.Value) (uint64, bool) {
	if t.pk < 0 {
		return 0, false
	}
	id, ok := t.primaryIndex[v]
	return id, ok
}

// Set overwrites one field of a live row. v is coerced to the field type
// with the INSERT rule; a new primary value must stay unique.
func (t *Table) Set(id uint64, field int, v core.Value) error {
	slot, ok := t.rowidIndex[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrRowNotFound, id)
	}
	if field < 0 || field >= len(t.schema) {
		return fmt.Errorf("%w: position %d", ErrNoSuchColumn, field)
	}
	f := t.schema[field]
	cv, ok := core.Coerce(v, f.Type)
	if !ok {
		return fmt.Errorf("%w: field %s is %s, got %s", ErrTypeMismatch, f.Name, f.Type, v.Type)
	}

	row := &t.rows[slot]
	old := row.Values[field]
	if old == cv {
		return nil
	}
	if field == t.pk {
		if owner, dup := t.primaryIndex[cv]; dup && owner != id {
			return fmt.Errorf("%w: %s = %s", ErrDuplicateKey, f.Name, cv.Literal())
		}
		delete(t.primaryIndex, old)
		t.primaryIndex[cv] = id
	}
	row.Values[field] = cv
	t.dirty = true
	return nil
}
