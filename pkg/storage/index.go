package storage

import (
	"fmt"

	"github.com/leapstack-labs/minisql/pkg/core"
)

// rebuildLinks chains the live rows in slot order and resets head/tail.
// Used after loading, where rows arrive in the order they were written.
func (t *Table) rebuildLinks() {
	t.head, t.tail = 0, 0
	prevSlot := -1
	for slot := range t.rows {
		row := &t.rows[slot]
		if row.Expired {
			continue
		}
		row.Next = 0
		if prevSlot < 0 {
			row.Prev = 0
			t.head = row.ID
		} else {
			row.Prev = t.rows[prevSlot].ID
			t.rows[prevSlot].Next = row.ID
		}
		prevSlot = slot
		t.tail = row.ID
	}
}

// index rebuilds both indexes, the free list and the live count from the
// row array. Duplicate row ids or primary keys are reported as corruption.
func (t *Table) index() error {
	t.rowidIndex = make(map[uint64]int, len(t.rows))
	t.primaryIndex = make(map[core.Value]uint64, len(t.rows))
	t.freeSlots = t.freeSlots[:0]
	t.aliveCount = 0
	for slot := range t.rows {
		row := &t.rows[slot]
		if row.Expired {
			t.freeSlots = append(t.freeSlots, slot)
			continue
		}
		if row.ID == 0 {
			return fmt.Errorf("%w: row id 0 in slot %d", ErrCorrupt, slot)
		}
		if _, dup := t.rowidIndex[row.ID]; dup {
			return fmt.Errorf("%w: duplicate row id %d", ErrCorrupt, row.ID)
		}
		t.rowidIndex[row.ID] = slot
		if t.pk >= 0 {
			key := row.Values[t.pk]
			if _, dup := t.primaryIndex[key]; dup {
				return fmt.Errorf("%w: duplicate primary key %s", ErrCorrupt, key.Literal())
			}
			t.primaryIndex[key] = row.ID
		}
		if row.ID >= t.nextRowID {
			t.nextRowID = row.ID + 1
		}
		t.aliveCount++
	}
	return nil
}

// Validate checks the structural invariants of the table:
//  1. every live row id is unique and indexed at its slot
//  2. next/prev over live rows form one list from head to tail
//  3. primary values are unique and indexed
//  4. the free list holds each expired slot exactly once
//  5. physical size equals live plus expired rows
func (t *Table) Validate() error {
	expired := 0
	for slot, row := range t.rows {
		if row.Expired {
			expired++
			continue
		}
		if got, ok := t.rowidIndex[row.ID]; !ok || got != slot {
			return fmt.Errorf("%w: row %d not indexed at slot %d", ErrInvariant, row.ID, slot)
		}
		if row.ID >= t.nextRowID {
			return fmt.Errorf("%w: row id %d not below next id %d", ErrInvariant, row.ID, t.nextRowID)
		}
		if t.pk >= 0 {
			if owner, ok := t.primaryIndex[row.Values[t.pk]]; !ok || owner != row.ID {
				return fmt.Errorf("%w: primary key of row %d not indexed", ErrInvariant, row.ID)
			}
		}
	}
	alive := len(t.rows) - expired
	if alive != t.aliveCount || len(t.rowidIndex) != alive {
		return fmt.Errorf("%w: %d live rows, alive count %d, %d indexed", ErrInvariant, alive, t.aliveCount, len(t.rowidIndex))
	}
	if t.pk >= 0 && len(t.primaryIndex) != alive {
		return fmt.Errorf("%w: %d primary keys for %d live rows", ErrInvariant, len(t.primaryIndex), alive)
	}

	// walk forward and check the back pointers
	var prev uint64
	seen := 0
	for id := t.head; id != 0; {
		slot, ok := t.rowidIndex[id]
		if !ok {
			return fmt.Errorf("%w: linked id %d is not live", ErrInvariant, id)
		}
		row := t.rows[slot]
		if row.Prev != prev {
			return fmt.Errorf("%w: row %d prev is %d, want %d", ErrInvariant, id, row.Prev, prev)
		}
		seen++
		if seen > alive {
			return fmt.Errorf("%w: cycle in row links", ErrInvariant)
		}
		prev = id
		id = row.Next
	}
	if prev != t.tail {
		return fmt.Errorf("%w: tail is %d, list ends at %d", ErrInvariant, t.tail, prev)
	}
	if seen != alive {
		return fmt.Errorf("%w: list has %d rows, %d live", ErrInvariant, seen, alive)
	}

	inFree := make(map[int]bool, len(t.freeSlots))
	for _, slot := range t.freeSlots {
		if slot < 0 || slot >= len(t.rows) || !t.rows[slot].Expired {
			return fmt.Errorf("%w: free slot %d is not expired", ErrInvariant, slot)
		}
		if inFree[slot] {
			return fmt.Errorf("%w: free slot %d listed twice", ErrInvariant, slot)
		}
		inFree[slot] = true
	}
	if len(inFree) != expired {
		return fmt.Errorf("%w: %d expired slots, %d free", ErrInvariant, expired, len(inFree))
	}
	return nil
}
