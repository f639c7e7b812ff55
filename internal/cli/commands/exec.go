package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	Tables  []string
	Execute string
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec [script.sql]",
		Short: "Run SQL against table files",
		Long: `Run a batch of SQL statements and exit.

The SQL comes from --execute, a script file, or standard input. Every
statement is checked before any of them runs; execution stops at the first
runtime error. Changed tables are written back before exit.`,
		Example: `  # Run a statement
  minisql exec -t grades.gpa -e 'SELECT name FROM grades WHERE math >= 60;'

  # Run a script against two tables
  minisql exec -t a.gpa -t b.gpa update.sql

  # Pipe SQL in and get JSON back
  echo 'SELECT * FROM grades;' | minisql exec -t grades.gpa -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Tables, "table", "t", nil, "Table file to load (repeatable)")
	cmd.Flags().StringVarP(&opts.Execute, "execute", "e", "", "SQL to run")

	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *ExecOptions) (err error) {
	sql, err := readSQL(cmd, args, opts)
	if err != nil {
		return err
	}

	cmdCtx, closeEngine := NewCommandContext(cmd)
	defer func() {
		err = errors.Join(err, closeEngine())
	}()

	if err := loadTables(cmdCtx.Engine, opts.Tables); err != nil {
		return err
	}
	return runBatch(cmdCtx.Engine, cmdCtx.Renderer, sql)
}

func readSQL(cmd *cobra.Command, args []string, opts *ExecOptions) (string, error) {
	switch {
	case opts.Execute != "":
		if len(args) > 0 {
			return "", errors.New("--execute and a script file are mutually exclusive")
		}
		return opts.Execute, nil
	case len(args) > 0:
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read script: %w", err)
		}
		return string(content), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no SQL given: use --execute, a script file or standard input")
	}
	content, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(content), nil
}
