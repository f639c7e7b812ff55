package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/minisql/pkg/core"
)

// CreateOptions holds options for the create command.
type CreateOptions struct {
	Fields     []string
	SchemaFile string
}

// schemaFile is the YAML layout accepted by --schema:
//
//	fields:
//	  - name: id
//	    type: INT
//	    primary: true
//	  - name: name
//	    type: STRING
type schemaFile struct {
	Fields []struct {
		Name    string `yaml:"name"`
		Type    string `yaml:"type"`
		Primary bool   `yaml:"primary"`
	} `yaml:"fields"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	opts := &CreateOptions{}

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty table file",
		Long: `Create <data_dir>/<name>.gpa with the given fields.

Fields are written name:TYPE with a trailing * for the primary key. Types
are INT, FLOAT and STRING.`,
		Example: `  minisql create grades --field id:INT* --field name:STRING --field math:FLOAT
  minisql create grades --schema grades.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Fields, "field", "f", nil, "Field as name:TYPE[*] (repeatable)")
	cmd.Flags().StringVar(&opts.SchemaFile, "schema", "", "YAML file listing the fields")
	cmd.MarkFlagsMutuallyExclusive("field", "schema")

	return cmd
}

func runCreate(cmd *cobra.Command, name string, opts *CreateOptions) (err error) {
	schema, err := resolveSchema(opts)
	if err != nil {
		return err
	}

	cmdCtx, closeEngine := NewCommandContext(cmd)
	defer func() {
		err = errors.Join(err, closeEngine())
	}()

	t, err := cmdCtx.Engine.CreateTable(name, schema)
	if err != nil {
		return err
	}
	cmdCtx.Renderer.Success("created %s %s", t.Path(), schema)
	return nil
}

func resolveSchema(opts *CreateOptions) (core.Schema, error) {
	if opts.SchemaFile == "" {
		return parseFields(opts.Fields)
	}
	return readSchemaFile(opts.SchemaFile)
}

func readSchemaFile(path string) (core.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	if len(sf.Fields) == 0 {
		return nil, fmt.Errorf("schema file %s lists no fields", path)
	}

	schema := make(core.Schema, 0, len(sf.Fields))
	for _, f := range sf.Fields {
		typ, err := core.ParseFieldType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		schema = append(schema, core.Field{Name: f.Name, Type: typ, Primary: f.Primary})
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}
