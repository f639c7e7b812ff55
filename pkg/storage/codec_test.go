package storage

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/minisql/pkg/core"
)

func TestCodec_RoundTrip(t *testing.T) {
	src := newGrades(t)
	for i := int64(1); i <= 5; i++ {
		_, err := src.Insert(gradeRow(i, "student", float64(i)*10.5))
		require.NoError(t, err)
	}
	require.NoError(t, src.EraseRow(1))
	require.NoError(t, src.EraseRow(3))
	_, err := src.Insert(gradeRow(9, "late", 99))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := src.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	dst := newTable("grades", "", nil)
	read, err := dst.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)

	assert.Equal(t, src.Schema(), dst.Schema())
	assert.Equal(t, src.AliveCount(), dst.AliveCount())
	assert.Equal(t, src.NextRowID(), dst.NextRowID())
	assert.Equal(t, scanIDs(src), scanIDs(dst))
	assert.Equal(t, 0, dst.PrimaryField())
	assert.False(t, dst.Dirty())

	values, ok := dst.Get(6)
	require.True(t, ok)
	assert.Equal(t, gradeRow(9, "late", 99), values)
	require.NoError(t, dst.Validate())

	// loaded tables keep issuing ids after the stored counter
	id, err := dst.Insert(gradeRow(10, "next", 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
}

func TestCodec_HeaderLayout(t *testing.T) {
	tbl, err := NewMemory("t", core.Schema{{Name: "a", Type: core.TypeInt, Primary: true}})
	require.NoError(t, err)
	_, err = tbl.Insert([]core.Value{core.IntValue(-2)})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = tbl.WriteTo(&buf)
	require.NoError(t, err)
	b := buf.Bytes()

	assert.Equal(t, []byte("GPATBL\x00"), b[:7])
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(b[7:11]))
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(b[11:19]), "field count")
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(b[19:27]), "alive count")
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(b[27:35]), "next row id")
	// field: len 1, "a", type 0, primary 1
	assert.Equal(t, []byte{1, 0, 0, 0, 'a', 0, 0, 0, 0, 1}, b[35:45])
	// row: id 1, value -2
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(b[45:53]))
	assert.Equal(t, int64(-2), int64(binary.LittleEndian.Uint64(b[53:61])))
	assert.Len(t, b, 61)
}

func TestCodec_EmptySchemaHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	_, err := newTable("t", "", nil).WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, 35, buf.Len())

	dst := newTable("t", "", nil)
	_, err = dst.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Empty(t, dst.Schema())
	assert.Equal(t, uint64(1), dst.NextRowID())
}

func TestCodec_Rejects(t *testing.T) {
	var good bytes.Buffer
	tbl := newGrades(t)
	_, err := tbl.Insert(gradeRow(1, "a", 1))
	require.NoError(t, err)
	_, err = tbl.WriteTo(&good)
	require.NoError(t, err)

	badVersion := bytes.Clone(good.Bytes())
	binary.LittleEndian.PutUint32(badVersion[7:11], 7)

	badType := bytes.Clone(good.Bytes())
	// type of the first field ("id"): header 35 + len 4 + name 2
	binary.LittleEndian.PutUint32(badType[41:45], 9)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadMagic},
		{"wrong magic", []byte("NOTATABLE-------------------------------"), ErrBadMagic},
		{"bad version", badVersion, ErrBadVersion},
		{"truncated header", good.Bytes()[:20], ErrCorrupt},
		{"truncated row", good.Bytes()[:good.Len()-3], ErrCorrupt},
		{"unknown field type", badType, ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := newTable("t", "", nil)
			_, err := dst.ReadFrom(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpen_MissingFileWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.gpa")

	tbl, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tbl.Name())
	assert.Empty(t, tbl.Schema())
	assert.False(t, tbl.Dirty())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(35), info.Size())
}

func TestOpen_RejectsExtension(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "t.csv"))
	assert.ErrorIs(t, err, ErrBadExtension)
}

func TestFlush_CreateAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.gpa")

	tbl, err := Create(path, gradesSchema())
	require.NoError(t, err)
	assert.True(t, tbl.Dirty())
	_, err = tbl.Insert(gradeRow(1, "ana", 91.5))
	require.NoError(t, err)
	_, err = tbl.Insert(gradeRow(2, "ben", 60))
	require.NoError(t, err)
	require.NoError(t, tbl.Close())
	assert.False(t, tbl.Dirty())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, gradesSchema(), reopened.Schema())
	assert.Equal(t, []int64{1, 2}, scanIDs(reopened))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gpa")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrBadMagic)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data), "unreadable file is left alone")
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school", "2024", "grades.gpa")

	tbl, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "grades", tbl.Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(35), info.Size())
}

func TestFlush_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grades.gpa")

	tbl, err := Create(path, gradesSchema())
	require.NoError(t, err)
	_, err = tbl.Insert(gradeRow(1, "ana", 91.5))
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, scanIDs(reopened))
}
