package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/minisql/internal/cli/output"
	clitest "github.com/leapstack-labs/minisql/internal/cli/testutil"
	"github.com/leapstack-labs/minisql/internal/engine"
	"github.com/leapstack-labs/minisql/internal/testutil"
)

func newTestShell(t *testing.T, dataDir string) (*Shell, *clitest.TestRenderer, *engine.Engine) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	eng := engine.New(engine.Config{DataDir: dataDir, Logger: logger})
	t.Cleanup(func() { _ = eng.Close() })
	r := clitest.NewTestRenderer(output.FormatTable)
	return NewShell(eng, r.Renderer, logger, "minisql> "), r, eng
}

func TestComplete(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT * FROM t;", true},
		{"SELECT * FROM t", false},
		{"SELECT * FROM t;\n", true},
		{"SELECT * FROM t; # trailing", true},
		{"# only a comment", true},
		{"SELECT \"a;", false},
		{"SELECT 'a\\", false},
		{"SELECT 1. FROM t;", true},
		{"SELECT 1. FROM t", true},
		{"SELECT ! FROM t", true},
		{"SELECT * FROM t; SELECT", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, complete(tt.sql), "%q", tt.sql)
	}
}

func TestShell_MultiLineStatement(t *testing.T) {
	_, path := clitest.SetupTestTable(t)
	sh, r, _ := newTestShell(t, t.TempDir())
	sh.load(path)

	assert.False(t, sh.Feed("SELECT name"))
	assert.Equal(t, continuationPrompt, sh.Prompt())
	assert.False(t, sh.Feed("FROM grades"))
	assert.False(t, sh.Feed("WHERE math < 60;"))
	assert.Equal(t, "minisql> ", sh.Prompt())

	assert.Contains(t, r.Out.String(), "loaded grades (3 rows)")
	assert.Contains(t, r.Out.String(), "Li")
	assert.Contains(t, r.Out.String(), "(1 rows)")
	assert.Empty(t, r.ErrOut.String())
}

func TestShell_DotCommands(t *testing.T) {
	dir := t.TempDir()
	sh, r, eng := newTestShell(t, dir)

	tests := []struct {
		line       string
		wantOut    string
		wantErrOut string
	}{
		{line: ".tables", wantOut: "(no tables)"},
		{line: ".schema", wantErrOut: "no table in use"},
		{line: ".create", wantErrOut: "usage: .create"},
		{line: ".create t id:INT* name:STRING", wantOut: "created t (id:INT*, name:STRING)"},
		{line: ".create u x:BLOB", wantErrOut: "unknown field type"},
		{line: ".schema t", wantOut: "Table: t"},
		{line: ".schema nope", wantErrOut: "no such table: nope"},
		{line: ".use nope", wantErrOut: "no such table"},
		{line: ".explain SELECT name FROM t;", wantOut: "── project (name)\n    └─ scan table t\n"},
		{line: ".explain SELECT x FROM t;", wantErrOut: "unknown column \"x\""},
		{line: ".flush", wantOut: "flushed"},
		{line: ".help", wantOut: ".create <name>"},
		{line: ".bogus", wantErrOut: "unknown command .bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r.Out.Reset()
			r.ErrOut.Reset()
			assert.False(t, sh.Feed(tt.line))
			if tt.wantOut != "" {
				assert.Contains(t, r.Out.String(), tt.wantOut)
			}
			if tt.wantErrOut != "" {
				assert.Contains(t, r.ErrOut.String(), tt.wantErrOut)
			} else {
				assert.Empty(t, r.ErrOut.String())
			}
		})
	}

	_, err := os.Stat(filepath.Join(dir, "t.gpa"))
	assert.NoError(t, err, ".flush writes the created table")
	assert.Equal(t, "t", eng.Current().Name())
}

func TestShell_UseAndQuit(t *testing.T) {
	sh, r, eng := newTestShell(t, t.TempDir())
	sh.Feed(".create a x:INT")
	sh.Feed(".create b x:INT")
	require.Equal(t, "a", eng.Current().Name())

	sh.Feed(".use b")
	assert.Equal(t, "b", eng.Current().Name())
	sh.Feed("INSERT INTO b VALUES (7);")
	assert.Contains(t, r.Out.String(), "1 row(s) affected")

	r.Out.Reset()
	sh.Feed(".tables")
	assert.Contains(t, r.Out.String(), "* ")

	assert.True(t, sh.Feed(".quit"))
	assert.True(t, sh.Feed(".EXIT"))
}

func TestShell_Script(t *testing.T) {
	_, path := clitest.SetupTestTable(t)
	sh, r, eng := newTestShell(t, t.TempDir())
	sh.load(path)

	script := strings.Join([]string{
		"# grade curve",
		"UPDATE grades SET math = math + 5",
		"  WHERE math < 60;",
		"SELECT mth FROM grades;",
		"DELETE FROM grades WHERE id = 3;",
		".quit",
		"DELETE FROM grades;",
	}, "\n")
	require.NoError(t, sh.Script(strings.NewReader(script)))

	assert.Contains(t, r.ErrOut.String(), "unknown column \"mth\"")
	assert.Equal(t, 2, eng.Current().AliveCount(), "statements after .quit do not run")
}

func TestShell_LexErrorDoesNotSwallowInput(t *testing.T) {
	_, path := clitest.SetupTestTable(t)
	sh, r, _ := newTestShell(t, t.TempDir())
	sh.load(path)

	assert.False(t, sh.Feed("SELECT 1. FROM grades;"))
	assert.Equal(t, "minisql> ", sh.Prompt())
	assert.Contains(t, r.ErrOut.String(), "expected digit after '.'")

	script := strings.Join([]string{
		"SELECT name FROM grades WHERE id = 1;",
		"SELECT name FROM grades WHERE id = 3;",
	}, "\n")
	require.NoError(t, sh.Script(strings.NewReader(script)))
	assert.Contains(t, r.Out.String(), "Zhang")
	assert.Contains(t, r.Out.String(), "Wang")
}

func TestShell_ScriptRecoversAfterLexError(t *testing.T) {
	_, path := clitest.SetupTestTable(t)
	sh, r, eng := newTestShell(t, t.TempDir())
	sh.load(path)

	script := strings.Join([]string{
		"SELECT 1. FROM grades;",
		"DELETE FROM grades WHERE id = 2;",
		"SELECT name FROM grades WHERE id = 3;",
	}, "\n")
	require.NoError(t, sh.Script(strings.NewReader(script)))

	assert.Equal(t, 1, strings.Count(r.ErrOut.String(), "expected digit after '.'"))
	assert.Contains(t, r.Out.String(), "Wang")
	assert.Equal(t, 2, eng.Current().AliveCount())
}

func TestShell_ScriptRunsUnterminatedTail(t *testing.T) {
	_, path := clitest.SetupTestTable(t)
	sh, r, _ := newTestShell(t, t.TempDir())
	sh.load(path)

	require.NoError(t, sh.Script(strings.NewReader("SELECT name FROM grades WHERE id = 2")))
	assert.Contains(t, r.Out.String(), "Li")
	assert.Contains(t, r.ErrOut.String(), "warning:")
}

func TestShell_Completer(t *testing.T) {
	sh, _, _ := newTestShell(t, t.TempDir())
	sh.Feed(".create grades x:INT")

	candidates := func(line string) []string {
		got, _ := sh.Completer().Do([]rune(line), len(line))
		out := make([]string, len(got))
		for i, c := range got {
			out[i] = string(c)
		}
		return out
	}

	assert.Contains(t, candidates(".us"), "e ")
	assert.Contains(t, candidates(".use gr"), "ades ")
	assert.Contains(t, candidates("DELETE FROM g"), "rades ")
}
