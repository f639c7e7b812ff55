package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/minisql/internal/cli/testutil"
	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/storage"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		name  string
		use   string
		flags []string
	}{
		{name: "shell", use: "shell [file.gpa ...]"},
		{name: "exec", use: "exec [script.sql]", flags: []string{"table", "execute"}},
		{name: "create", use: "create <name>", flags: []string{"field", "schema"}},
		{name: "schema", use: "schema <file.gpa>"},
	}
	cmds := map[string]func() *cobra.Command{
		"shell":  NewShellCommand,
		"exec":   NewExecCommand,
		"create": NewCreateCommand,
		"schema": NewSchemaCommand,
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := cmds[tt.name]()
			assert.Equal(t, tt.use, cmd.Use)
			assert.NotEmpty(t, cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestExec(t *testing.T) {
	dir, path := clitest.SetupTestTable(t)
	cfg := clitest.TestConfig(dir)

	out, _, err := clitest.ExecuteCommand(t, NewExecCommand(), cfg,
		"-t", path, "-e", "SELECT name FROM grades WHERE math >= 60 ORDER BY math DESC;")
	require.NoError(t, err)
	assert.Contains(t, out, "Wang")
	assert.Contains(t, out, "Zhang")
	assert.NotContains(t, out, "Li")
	assert.Contains(t, out, "(2 rows)")
	assert.Less(t, strings.Index(out, "Wang"), strings.Index(out, "Zhang"))
}

func TestExec_WritesChanges(t *testing.T) {
	dir, path := clitest.SetupTestTable(t)
	cfg := clitest.TestConfig(dir)

	out, _, err := clitest.ExecuteCommand(t, NewExecCommand(), cfg,
		"-t", path, "-e", "UPDATE grades SET math = math + 5 WHERE math < 60; DELETE FROM grades WHERE id = 3;")
	require.NoError(t, err)
	assert.Equal(t, "1 row(s) affected\n1 row(s) affected\n", out)

	tbl, err := storage.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.AliveCount())
	id, ok := tbl.FindPrimary(core.IntValue(2))
	require.True(t, ok)
	row, ok := tbl.Get(id)
	require.True(t, ok)
	assert.Equal(t, int64(60), row[2].Int)
}

func TestExec_ScriptFileAndJSON(t *testing.T) {
	dir, path := clitest.SetupTestTable(t)
	cfg := clitest.TestConfig(dir)
	cfg.Output = "json"
	script := filepath.Join(dir, "q.sql")
	require.NoError(t, os.WriteFile(script, []byte("SELECT id FROM grades WHERE name LIKE \"%an%\";\n"), 0o644))

	out, _, err := clitest.ExecuteCommand(t, NewExecCommand(), cfg, "-t", path, script)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": 1}, {"id": 3}]`, out)
}

func TestExec_Errors(t *testing.T) {
	dir, path := clitest.SetupTestTable(t)
	cfg := clitest.TestConfig(dir)

	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantErrOut string
	}{
		{
			name:       "compile error",
			args:       []string{"-t", path, "-e", "SELECT mth FROM grades;"},
			wantErr:    ErrReported,
			wantErrOut: "error: unknown column \"mth\" in table grades\n  SELECT mth FROM grades;\n         ^~~\n",
		},
		{
			name:       "runtime error",
			args:       []string{"-t", path, "-e", "INSERT INTO grades VALUES (1, \"dup\", 1);"},
			wantErr:    ErrReported,
			wantErrOut: "duplicate",
		},
		{
			name: "no input",
			args: []string{"-t", path},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, err := clitest.ExecuteCommand(t, NewExecCommand(), cfg, tt.args...)
			if tt.wantErr == nil {
				// stdin is an empty buffer: nothing to run
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, errOut, tt.wantErrOut)
		})
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	cfg := clitest.TestConfig(dir)

	out, _, err := clitest.ExecuteCommand(t, NewCreateCommand(), cfg,
		"grades", "--field", "id:INT*", "--field", "name:STRING", "-f", "gpa:FLOAT")
	require.NoError(t, err)
	assert.Contains(t, out, "(id:INT*, name:STRING, gpa:FLOAT)")

	tbl, err := storage.Open(filepath.Join(dir, "grades.gpa"))
	require.NoError(t, err)
	assert.Equal(t, "(id:INT*, name:STRING, gpa:FLOAT)", tbl.Schema().String())

	_, _, err = clitest.ExecuteCommand(t, NewCreateCommand(), cfg, "grades", "--field", "id:INT")
	assert.Error(t, err, "file already exists")
}

func TestCreate_SchemaFile(t *testing.T) {
	dir := t.TempDir()
	cfg := clitest.TestConfig(dir)
	schemaPath := filepath.Join(dir, "grades.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`fields:
  - name: id
    type: INT
    primary: true
  - name: math
    type: float
`), 0o644))

	_, _, err := clitest.ExecuteCommand(t, NewCreateCommand(), cfg, "grades", "--schema", schemaPath)
	require.NoError(t, err)

	tbl, err := storage.Open(filepath.Join(dir, "grades.gpa"))
	require.NoError(t, err)
	assert.Equal(t, "(id:INT*, math:FLOAT)", tbl.Schema().String())
}

func TestCreate_Invalid(t *testing.T) {
	dir := t.TempDir()
	cfg := clitest.TestConfig(dir)
	badSchema := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badSchema, []byte("fields:\n  - name: x\n    type: BLOB\n"), 0o644))

	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{name: "no fields", args: []string{"t"}, errSubstr: "at least one field"},
		{name: "bad type", args: []string{"t", "--field", "x:BLOB"}, errSubstr: "unknown field type"},
		{name: "two primaries", args: []string{"t", "--field", "a:INT*", "--field", "b:INT*"}, errSubstr: "more than one primary key"},
		{name: "duplicate field", args: []string{"t", "--field", "a:INT", "--field", "a:STRING"}, errSubstr: "duplicate field"},
		{name: "bad schema file", args: []string{"t", "--schema", badSchema}, errSubstr: "unknown field type"},
		{name: "bad table name", args: []string{"9t", "--field", "a:INT"}, errSubstr: "invalid table name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := clitest.ExecuteCommand(t, NewCreateCommand(), cfg, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestSchema(t *testing.T) {
	dir, path := clitest.SetupTestTable(t)
	cfg := clitest.TestConfig(dir)

	out, _, err := clitest.ExecuteCommand(t, NewSchemaCommand(), cfg, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Table: grades")
	assert.Contains(t, out, "rows: 3 alive, 3 slots, next id 4")

	missing := filepath.Join(dir, "missing.gpa")
	_, _, err = clitest.ExecuteCommand(t, NewSchemaCommand(), cfg, missing)
	require.Error(t, err)
	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr), "schema must not create the file")
}
