// Package commands implements the MiniSQL subcommands.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/minisql/internal/cli/config"
	"github.com/leapstack-labs/minisql/internal/cli/output"
	"github.com/leapstack-labs/minisql/internal/engine"
	"github.com/leapstack-labs/minisql/pkg/core"
)

// ErrReported marks a failure whose details were already written to the
// user. The root command exits non-zero without printing it again.
var ErrReported = errors.New("failed")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
// Cleanup flushes every dirty table.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func() error) {
	c := NewCommandContextWithoutEngine(cmd)
	c.Engine = engine.New(engine.Config{DataDir: c.Cfg.DataDir, Logger: c.Logger})
	return c, c.Engine.Close
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only inspect files.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	color := output.ColorEnabled(cfg.Color, cmd.ErrOrStderr())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Format(cfg.Output), color),
	}
}

// loadTables loads every path into the engine.
func loadTables(eng *engine.Engine, paths []string) error {
	for _, p := range paths {
		if _, err := eng.LoadTable(p); err != nil {
			return err
		}
	}
	return nil
}

// parseFields parses name:TYPE[*] field definitions.
func parseFields(defs []string) (core.Schema, error) {
	if len(defs) == 0 {
		return nil, errors.New("at least one field is required")
	}
	schema := make(core.Schema, 0, len(defs))
	for _, d := range defs {
		f, err := core.ParseField(d)
		if err != nil {
			return nil, err
		}
		schema = append(schema, f)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// runBatch compiles and runs sql, rendering each statement's rows or
// affected count as it completes. Nothing runs if any statement fails to
// compile. Errors are rendered and reported as ErrReported.
func runBatch(eng *engine.Engine, r *output.Renderer, sql string) error {
	stmts, diags := eng.Prepare(sql)
	r.Diagnostics(sql, diags)
	if diags.HasErrors() {
		return ErrReported
	}

	for _, st := range stmts {
		var rows [][]core.Value
		res, err := eng.Run(st, func(_ []string, values []core.Value) {
			rows = append(rows, slices.Clone(values))
		})
		if err != nil {
			r.Error(sql, fmt.Errorf("%s: %w", st.SQL, err))
			return ErrReported
		}
		if len(res.Columns) > 0 {
			if err := r.Rows(res.Columns, rows); err != nil {
				return err
			}
		} else {
			r.Affected(res.Affected)
		}
	}
	return nil
}
