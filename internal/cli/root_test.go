package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/minisql/internal/cli/commands"
	"github.com/leapstack-labs/minisql/internal/cli/config"
	clitest "github.com/leapstack-labs/minisql/internal/cli/testutil"
)

func runRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Chdir(t.TempDir())

	cmd := NewRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"version", "shell", "exec", "create", "schema", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRoot_Version(t *testing.T) {
	out, _, err := runRoot(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "MiniSQL v"+Version)

	out, _, err = runRoot(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestRoot_FlagsReachCommands(t *testing.T) {
	_, path := clitest.SetupTestTable(t)

	out, _, err := runRoot(t, "", "exec", "-o", "csv", "-t", path, "-e", "SELECT id, name FROM grades WHERE id = 2;")
	require.NoError(t, err)
	assert.Contains(t, out, "2,Li")
}

func TestRoot_EnvOutput(t *testing.T) {
	_, path := clitest.SetupTestTable(t)
	t.Setenv("MINISQL_OUTPUT", "json")

	out, _, err := runRoot(t, "", "exec", "-t", path, "-e", "SELECT count(id) FROM grades;")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"count(id)": 3}]`, out)
}

func TestRoot_InvalidConfig(t *testing.T) {
	_, _, err := runRoot(t, "", "exec", "-o", "xml", "-e", "SELECT 1;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output")
}

func TestRoot_DefaultsToShell(t *testing.T) {
	_, path := clitest.SetupTestTable(t)

	out, errOut, err := runRoot(t, "SELECT name FROM grades\n  WHERE math > 95;\n.schema\n", path)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded grades (3 rows)")
	assert.Contains(t, out, "Wang")
	assert.Contains(t, out, "Table: grades")
	assert.Empty(t, errOut)
}

func TestRoot_ReportedErrors(t *testing.T) {
	_, path := clitest.SetupTestTable(t)

	_, errOut, err := runRoot(t, "", "exec", "--color", "always", "-t", path, "-e", "SELECT nope FROM grades;")
	assert.ErrorIs(t, err, commands.ErrReported)
	plain := clitest.StripANSI(errOut)
	assert.Contains(t, plain, `error: unknown column "nope" in table grades`)
	assert.Contains(t, plain, "^~~~")
}
