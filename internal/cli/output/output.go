// Package output renders query results, schemas and diagnostics for the
// MiniSQL CLI.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/diag"
	"github.com/leapstack-labs/minisql/pkg/storage"
)

// Format selects how result rows are written.
type Format string

// Result formats.
const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ColorEnabled resolves a color mode (auto|always|never) for w. auto
// enables colour only on a terminal and when NO_COLOR is unset.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if termenv.EnvNoColor() {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Renderer writes results to Out and diagnostics to ErrOut.
type Renderer struct {
	Out    io.Writer
	ErrOut io.Writer
	Format Format
	Color  bool

	styles *diag.Styles
	dim    lipgloss.Style
	ok     lipgloss.Style
}

// NewRenderer creates a renderer. color applies to diagnostics and status
// lines; result rows are never coloured.
func NewRenderer(out, errOut io.Writer, format Format, color bool) *Renderer {
	r := lipgloss.NewRenderer(out)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		Out:    out,
		ErrOut: errOut,
		Format: format,
		Color:  color,
		styles: diag.NewStyles(errOut, color),
		dim:    r.NewStyle().Faint(true),
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

// Rows renders one result set.
func (r *Renderer) Rows(columns []string, rows [][]core.Value) error {
	switch r.Format {
	case FormatJSON:
		return r.json(columns, rows)
	case FormatCSV:
		r.writer(columns, rows).RenderCSV()
	case FormatMarkdown:
		r.writer(columns, rows).RenderMarkdown()
	default:
		r.writer(columns, rows).Render()
		r.status("(%d rows)", len(rows))
	}
	return nil
}

func (r *Renderer) writer(columns []string, rows [][]core.Value) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.Out)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = v.String()
		}
		t.AppendRow(out)
	}
	return t
}

func (r *Renderer) json(columns []string, rows [][]core.Value) error {
	results := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]any, len(columns))
		for i, c := range columns {
			obj[c] = row[i].Any()
		}
		results = append(results, obj)
	}
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// Affected reports the row count of a mutating statement. Only the table
// format prints it so that machine-readable output stays clean.
func (r *Renderer) Affected(n int) {
	if r.Format != FormatTable {
		return
	}
	r.status("%d row(s) affected", n)
}

func (r *Renderer) status(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.Color {
		msg = r.dim.Render(msg)
	}
	_, _ = fmt.Fprintln(r.Out, msg)
}

// Success prints a confirmation line.
func (r *Renderer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.Color {
		msg = r.ok.Render(msg)
	}
	_, _ = fmt.Fprintln(r.Out, msg)
}

// Diagnostics renders every diagnostic in l against source.
func (r *Renderer) Diagnostics(source string, l diag.List) {
	for _, d := range l {
		_ = r.styles.Render(r.ErrOut, source, d)
	}
}

// Error writes err to ErrOut. A diag.List carried by err is rendered with
// source excerpts.
func (r *Renderer) Error(source string, err error) {
	var l diag.List
	if errors.As(err, &l) {
		r.Diagnostics(source, l)
		return
	}
	msg := "error: " + err.Error()
	if r.Color {
		msg = r.styles.Error.Render("error:") + " " + err.Error()
	}
	_, _ = fmt.Fprintln(r.ErrOut, msg)
}

// Schema renders the fields and row statistics of t.
func (r *Renderer) Schema(t *storage.Table) error {
	if r.Format == FormatJSON {
		return r.schemaJSON(t)
	}

	_, _ = fmt.Fprintf(r.Out, "Table: %s\n", t.Name())
	if t.Path() != "" {
		_, _ = fmt.Fprintf(r.Out, "File:  %s\n", t.Path())
	}

	w := table.NewWriter()
	w.SetOutputMirror(r.Out)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"#", "Field", "Type", "Key"})
	for i, f := range t.Schema() {
		key := ""
		if f.Primary {
			key = "primary"
		}
		w.AppendRow(table.Row{i, f.Name, f.Type.String(), key})
	}
	switch r.Format {
	case FormatCSV:
		w.RenderCSV()
	case FormatMarkdown:
		w.RenderMarkdown()
	default:
		w.Render()
	}
	r.status("rows: %d alive, %d slots, next id %d", t.AliveCount(), t.RowsPhysicalSize(), t.NextRowID())
	return nil
}

type fieldInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Primary bool   `json:"primary"`
}

type schemaOutput struct {
	Name      string      `json:"name"`
	Path      string      `json:"path,omitempty"`
	Fields    []fieldInfo `json:"fields"`
	Rows      int         `json:"rows"`
	Slots     int         `json:"slots"`
	NextRowID uint64      `json:"next_row_id"`
}

func (r *Renderer) schemaJSON(t *storage.Table) error {
	out := schemaOutput{
		Name:      t.Name(),
		Path:      t.Path(),
		Fields:    make([]fieldInfo, 0, len(t.Schema())),
		Rows:      t.AliveCount(),
		Slots:     t.RowsPhysicalSize(),
		NextRowID: t.NextRowID(),
	}
	for _, f := range t.Schema() {
		out.Fields = append(out.Fields, fieldInfo{Name: f.Name, Type: f.Type.String(), Primary: f.Primary})
	}
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Tables lists resident tables, marking the current one.
func (r *Renderer) Tables(tables []*storage.Table, current *storage.Table) {
	if len(tables) == 0 {
		r.status("(no tables)")
		return
	}
	w := table.NewWriter()
	w.SetOutputMirror(r.Out)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"", "Table", "Rows", "File"})
	for _, t := range tables {
		mark := ""
		if t == current {
			mark = "*"
		}
		w.AppendRow(table.Row{mark, t.Name(), t.AliveCount(), t.Path()})
	}
	w.Render()
}
