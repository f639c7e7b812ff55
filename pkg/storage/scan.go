package storage

import "github.com/leapstack-labs/minisql/pkg/core"

// ScanAction tells ScanStruct what to do with the current row.
type ScanAction int

// Scan actions.
const (
	ScanKeep ScanAction = iota
	ScanDelete
	ScanStop
)

// Scan calls fn for every live row in logical order until fn returns
// false. values is the row's own storage and must not be modified.
func (t *Table) Scan(fn func(id uint64, values []core.Value) bool) {
	for id := t.head; id != 0; {
		row := &t.rows[t.rowidIndex[id]]
		if !fn(id, row.Values) {
			return
		}
		id = row.Next
	}
}

// ScanMut is Scan with writable values. Writes go straight into the row and
// mark the table dirty; they bypass type checks and must not touch the
// primary field (use Set for that).
func (t *Table) ScanMut(fn func(id uint64, values []core.Value) bool) {
	if t.head != 0 {
		t.dirty = true
	}
	for id := t.head; id != 0; {
		row := &t.rows[t.rowidIndex[id]]
		next := row.Next
		if !fn(id, row.Values) {
			return
		}
		id = next
	}
}

// ScanStruct walks the logical order and applies the action fn returns:
// ScanDelete erases the current row and continues with the row that
// followed it, ScanStop ends the walk. It returns the number of rows
// deleted.
func (t *Table) ScanStruct(fn func(id uint64, values []core.Value) ScanAction) int {
	deleted := 0
	for id := t.head; id != 0; {
		row := &t.rows[t.rowidIndex[id]]
		next := row.Next
		switch fn(id, row.Values) {
		case ScanDelete:
			// a live id always erases cleanly
			_ = t.EraseRow(id)
			deleted++
		case ScanStop:
			return deleted
		}
		id = next
	}
	return deleted
}
