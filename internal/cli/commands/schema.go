package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/minisql/pkg/storage"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <file.gpa>",
		Short: "Show the fields and row counts of a table file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open creates missing files; inspecting one must not.
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("cannot inspect %s: %w", args[0], err)
			}
			t, err := storage.Open(args[0])
			if err != nil {
				return err
			}
			return NewCommandContextWithoutEngine(cmd).Renderer.Schema(t)
		},
	}
}
