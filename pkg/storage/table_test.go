package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/minisql/pkg/core"
)

func gradesSchema() core.Schema {
	return core.Schema{
		{Name: "id", Type: core.TypeInt, Primary: true},
		{Name: "name", Type: core.TypeString},
		{Name: "math", Type: core.TypeFloat},
	}
}

func gradeRow(id int64, name string, math float64) []core.Value {
	return []core.Value{core.IntValue(id), core.StringValue(name), core.FloatValue(math)}
}

func newGrades(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewMemory("grades", gradesSchema())
	require.NoError(t, err)
	return tbl
}

// scanIDs returns the primary values in logical order.
func scanIDs(tbl *Table) []int64 {
	var ids []int64
	tbl.Scan(func(_ uint64, values []core.Value) bool {
		ids = append(ids, values[0].Int)
		return true
	})
	return ids
}

func TestTable_InsertAndScan(t *testing.T) {
	tbl := newGrades(t)

	for i := int64(1); i <= 3; i++ {
		id, err := tbl.Insert(gradeRow(i, "s", 50))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), id)
	}

	assert.Equal(t, 3, tbl.AliveCount())
	assert.Equal(t, uint64(4), tbl.NextRowID())
	assert.Equal(t, []int64{1, 2, 3}, scanIDs(tbl))
	assert.True(t, tbl.Dirty())
	require.NoError(t, tbl.Validate())
}

func TestTable_InsertRejects(t *testing.T) {
	tests := []struct {
		name   string
		values []core.Value
		want   error
	}{
		{"too few values", []core.Value{core.IntValue(1)}, ErrArity},
		{"too many values", append(gradeRow(1, "a", 1), core.IntValue(9)), ErrArity},
		{"int in float column", []core.Value{core.IntValue(1), core.StringValue("a"), core.IntValue(3)}, ErrTypeMismatch},
		{"string in int column", []core.Value{core.StringValue("1"), core.StringValue("a"), core.FloatValue(3)}, ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newGrades(t)
			_, err := tbl.Insert(tt.values)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, tbl.AliveCount())
			assert.Equal(t, uint64(1), tbl.NextRowID())
		})
	}
}

func TestTable_InsertWithoutSchema(t *testing.T) {
	tbl := newTable("empty", "", nil)
	_, err := tbl.Insert(nil)
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestTable_DuplicatePrimaryLeavesTableUnchanged(t *testing.T) {
	tbl := newGrades(t)
	_, err := tbl.Insert(gradeRow(7, "a", 1))
	require.NoError(t, err)

	_, err = tbl.Insert(gradeRow(7, "b", 2))
	require.ErrorIs(t, err, ErrDuplicateKey)

	assert.Equal(t, 1, tbl.AliveCount())
	assert.Equal(t, 1, tbl.RowsPhysicalSize())
	assert.Equal(t, uint64(2), tbl.NextRowID())
	values, ok := tbl.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", values[1].Str)
	require.NoError(t, tbl.Validate())
}

func TestTable_EraseKeepsLogicalOrder(t *testing.T) {
	tests := []struct {
		name  string
		erase []uint64
		want  []int64
	}{
		{"head", []uint64{1}, []int64{2, 3, 4, 5}},
		{"tail", []uint64{5}, []int64{1, 2, 3, 4}},
		{"middle", []uint64{3}, []int64{1, 2, 4, 5}},
		{"head middle and tail", []uint64{1, 3, 5}, []int64{2, 4}},
		{"everything", []uint64{2, 1, 5, 4, 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newGrades(t)
			for i := int64(1); i <= 5; i++ {
				_, err := tbl.Insert(gradeRow(i, "s", 0))
				require.NoError(t, err)
			}
			for _, id := range tt.erase {
				require.NoError(t, tbl.EraseRow(id))
			}
			assert.Equal(t, tt.want, scanIDs(tbl))
			assert.Equal(t, len(tt.want), tbl.AliveCount())
			require.NoError(t, tbl.Validate())
		})
	}
}

func TestTable_EraseUnknownAndRepeated(t *testing.T) {
	tbl := newGrades(t)
	_, err := tbl.Insert(gradeRow(1, "a", 1))
	require.NoError(t, err)

	require.NoError(t, tbl.EraseRow(1))
	assert.NoError(t, tbl.EraseRow(1), "second erase is a no-op")
	assert.ErrorIs(t, tbl.EraseRow(42), ErrRowNotFound)
	assert.ErrorIs(t, tbl.EraseRow(0), ErrRowNotFound)
	assert.Equal(t, 0, tbl.AliveCount())
}

func TestTable_SlotReuseIssuesFreshID(t *testing.T) {
	tbl := newGrades(t)
	for i := int64(1); i <= 3; i++ {
		_, err := tbl.Insert(gradeRow(i, "s", 0))
		require.NoError(t, err)
	}
	require.NoError(t, tbl.EraseRow(2))

	id, err := tbl.Insert(gradeRow(2, "again", 0))
	require.NoError(t, err)

	assert.Equal(t, uint64(4), id, "ids are never reused")
	assert.Equal(t, 3, tbl.RowsPhysicalSize(), "freed slot is reused")
	assert.Equal(t, []int64{1, 3, 2}, scanIDs(tbl), "reinserted row goes to the tail")
	_, ok := tbl.Get(2)
	assert.False(t, ok)
	require.NoError(t, tbl.Validate())
}

func TestTable_FindPrimary(t *testing.T) {
	tbl := newGrades(t)
	_, err := tbl.Insert(gradeRow(10, "a", 1))
	require.NoError(t, err)

	id, ok := tbl.FindPrimary(core.IntValue(10))
	assert.True(t, ok)
	assert.Equal(t, uint64(1), id)

	_, ok = tbl.FindPrimary(core.IntValue(11))
	assert.False(t, ok)

	noPK, err := NewMemory("t", core.Schema{{Name: "a", Type: core.TypeInt}})
	require.NoError(t, err)
	_, ok = noPK.FindPrimary(core.IntValue(1))
	assert.False(t, ok)
}

func TestTable_Set(t *testing.T) {
	tbl := newGrades(t)
	_, err := tbl.Insert(gradeRow(1, "a", 1))
	require.NoError(t, err)
	_, err = tbl.Insert(gradeRow(2, "b", 2))
	require.NoError(t, err)

	t.Run("coerces int to float", func(t *testing.T) {
		require.NoError(t, tbl.Set(1, 2, core.IntValue(90)))
		values, _ := tbl.Get(1)
		assert.Equal(t, core.FloatValue(90), values[2])
	})

	t.Run("rejects string for float", func(t *testing.T) {
		assert.ErrorIs(t, tbl.Set(1, 2, core.StringValue("x")), ErrTypeMismatch)
	})

	t.Run("primary conflict", func(t *testing.T) {
		assert.ErrorIs(t, tbl.Set(1, 0, core.IntValue(2)), ErrDuplicateKey)
		values, _ := tbl.Get(1)
		assert.Equal(t, int64(1), values[0].Int)
	})

	t.Run("primary move updates index", func(t *testing.T) {
		require.NoError(t, tbl.Set(1, 0, core.IntValue(5)))
		id, ok := tbl.FindPrimary(core.IntValue(5))
		assert.True(t, ok)
		assert.Equal(t, uint64(1), id)
		_, ok = tbl.FindPrimary(core.IntValue(1))
		assert.False(t, ok)
	})

	t.Run("unknown row and column", func(t *testing.T) {
		assert.ErrorIs(t, tbl.Set(99, 0, core.IntValue(1)), ErrRowNotFound)
		assert.ErrorIs(t, tbl.Set(2, 3, core.IntValue(1)), ErrNoSuchColumn)
	})

	require.NoError(t, tbl.Validate())
}

func TestTable_ScanStruct(t *testing.T) {
	tbl := newGrades(t)
	for i := int64(1); i <= 6; i++ {
		_, err := tbl.Insert(gradeRow(i, "s", float64(i)))
		require.NoError(t, err)
	}

	deleted := tbl.ScanStruct(func(_ uint64, values []core.Value) ScanAction {
		if values[0].Int%2 == 0 {
			return ScanDelete
		}
		return ScanKeep
	})
	assert.Equal(t, 3, deleted)
	assert.Equal(t, []int64{1, 3, 5}, scanIDs(tbl))

	visited := 0
	tbl.ScanStruct(func(uint64, []core.Value) ScanAction {
		visited++
		return ScanStop
	})
	assert.Equal(t, 1, visited)
	require.NoError(t, tbl.Validate())
}

func TestTable_ScanMutMarksDirty(t *testing.T) {
	tbl := newGrades(t)
	_, err := tbl.Insert(gradeRow(1, "a", 1))
	require.NoError(t, err)
	tbl.dirty = false

	tbl.ScanMut(func(_ uint64, values []core.Value) bool {
		values[1] = core.StringValue("b")
		return true
	})
	assert.True(t, tbl.Dirty())
	values, _ := tbl.Get(1)
	assert.Equal(t, "b", values[1].Str)
}

func TestTable_ValidateDetectsBrokenLinks(t *testing.T) {
	tbl := newGrades(t)
	for i := int64(1); i <= 3; i++ {
		_, err := tbl.Insert(gradeRow(i, "s", 0))
		require.NoError(t, err)
	}
	tbl.rows[1].Prev = 3

	assert.ErrorIs(t, tbl.Validate(), ErrInvariant)
}

func TestNameFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"data/grades.gpa", "grades", false},
		{"/tmp/T1.GPA", "T1", false},
		{"grades.csv", "", true},
		{"data/1bad.gpa", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := NameFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
