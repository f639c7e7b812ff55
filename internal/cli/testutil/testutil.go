// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/minisql/internal/cli/config"
	"github.com/leapstack-labs/minisql/internal/cli/output"
	"github.com/leapstack-labs/minisql/internal/testutil"
	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/storage"
)

// GradesSchema is the schema of the table written by SetupTestTable.
var GradesSchema = core.Schema{
	{Name: "id", Type: core.TypeInt, Primary: true},
	{Name: "name", Type: core.TypeString},
	{Name: "math", Type: core.TypeInt},
}

// SetupTestTable writes grades.gpa with three rows into a temporary
// directory and returns the directory and the file path.
func SetupTestTable(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "grades.gpa")
	tbl, err := storage.Create(path, GradesSchema)
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	rows := [][]core.Value{
		{core.IntValue(1), core.StringValue("Zhang"), core.IntValue(90)},
		{core.IntValue(2), core.StringValue("Li"), core.IntValue(55)},
		{core.IntValue(3), core.StringValue("Wang"), core.IntValue(100)},
	}
	for _, r := range rows {
		if _, err := tbl.Insert(r); err != nil {
			t.Fatalf("failed to insert %v: %v", r, err)
		}
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}
	return dir, path
}

// TestConfig returns the default config with dataDir and colour disabled.
func TestConfig(dataDir string) *config.Config {
	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.Color = "never"
	return cfg
}

// ExecuteCommand runs cmd with args under cfg and returns captured stdout
// and stderr.
func ExecuteCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	cmd.SetContext(config.NewContext(context.Background(), cfg, testutil.NewTestLogger(t)))

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified format.
// Output is captured in buffers for inspection.
func NewTestRenderer(format output.Format) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRenderer(out, errOut, format, false),
		Out:      out,
		ErrOut:   errOut,
	}
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes ANSI colour escape sequences from s.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
