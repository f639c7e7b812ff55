package storage

import (
	"bytes"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/leapstack-labs/minisql/pkg/core"
)

// op is one random table mutation: an insert of key, or an erase of the
// live row at position key modulo the live count.
type op struct {
	Erase bool
	Key   int64
}

func genOps() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(gen.Bool(), gen.Int64Range(0, 20)).Map(
		func(vals []any) op {
			return op{Erase: vals[0].(bool), Key: vals[1].(int64)}
		}))
}

// apply runs ops against a table and a plain slice model of the logical
// order. It reports false as soon as the two disagree.
func apply(tbl *Table, ops []op) bool {
	var model []int64
	lastID := uint64(0)
	for _, o := range ops {
		if o.Erase {
			if len(model) == 0 {
				continue
			}
			key := model[int(o.Key)%len(model)]
			id, ok := tbl.FindPrimary(core.IntValue(key))
			if !ok || tbl.EraseRow(id) != nil {
				return false
			}
			model = slices.DeleteFunc(model, func(k int64) bool { return k == key })
			continue
		}
		id, err := tbl.Insert(gradeRow(o.Key, "p", float64(o.Key)))
		if slices.Contains(model, o.Key) {
			if err == nil {
				return false
			}
			continue
		}
		if err != nil || id <= lastID {
			return false
		}
		lastID = id
		model = append(model, o.Key)
	}
	return tbl.Validate() == nil && slices.Equal(model, scanIDs(tbl)) && tbl.AliveCount() == len(model)
}

func TestProperty_TableInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("random inserts and erases keep order, ids and indexes consistent", prop.ForAll(
		func(ops []op) bool {
			tbl, err := NewMemory("p", gradesSchema())
			if err != nil {
				return false
			}
			return apply(tbl, ops)
		},
		genOps(),
	))

	properties.Property("a written table reads back with the same scan order", prop.ForAll(
		func(ops []op) bool {
			tbl, err := NewMemory("p", gradesSchema())
			if err != nil || !apply(tbl, ops) {
				return false
			}
			var buf bytes.Buffer
			if _, err := tbl.WriteTo(&buf); err != nil {
				return false
			}
			back := newTable("p", "", nil)
			if _, err := back.ReadFrom(&buf); err != nil {
				return false
			}
			return back.Validate() == nil &&
				back.NextRowID() == tbl.NextRowID() &&
				slices.Equal(scanIDs(back), scanIDs(tbl))
		},
		genOps(),
	))

	properties.TestingRun(t)
}
