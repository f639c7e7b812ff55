package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used when rendering with colour.
type Styles struct {
	Note      lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Message   lipgloss.Style
	Underline lipgloss.Style

	plain bool
}

// NewStyles returns styles bound to a renderer writing to w. When color is
// false the renderer uses the ASCII profile so no escape codes are emitted.
func NewStyles(w io.Writer, color bool) *Styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Styles{
		Note:      r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		Error:     r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Message:   r.NewStyle().Bold(true),
		Underline: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		plain:     !color,
	}
}

func (s *Styles) paint(st lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return st.Render(text)
}

func (s *Styles) level(l Level) lipgloss.Style {
	switch l {
	case LevelNote:
		return s.Note
	case LevelWarning:
		return s.Warning
	default:
		return s.Error
	}
}

// Render writes d with the offending source line and an underline beneath
// the span:
//
//	error: unknown column "mth"
//	  SELECT mth FROM t;
//	         ^~~
func Render(w io.Writer, source string, d Diagnostic, color bool) error {
	return NewStyles(w, color).Render(w, source, d)
}

// RenderAll renders every diagnostic in l.
func RenderAll(w io.Writer, source string, l List, color bool) error {
	styles := NewStyles(w, color)
	for _, d := range l {
		if err := styles.Render(w, source, d); err != nil {
			return err
		}
	}
	return nil
}

// Render writes d using the receiver's styles.
func (s *Styles) Render(w io.Writer, source string, d Diagnostic) error {
	line, col, width := locate(source, d.Span)
	var b strings.Builder
	b.WriteString(s.paint(s.level(d.Level), d.Level.String()+":"))
	b.WriteByte(' ')
	b.WriteString(s.paint(s.Message, d.Message))
	b.WriteByte('\n')
	b.WriteString("  ")
	b.WriteString(line)
	b.WriteByte('\n')
	b.WriteString("  ")
	b.WriteString(padding(line, col))
	b.WriteString(s.paint(s.Underline, "^"+strings.Repeat("~", max(width-1, 0))))
	b.WriteByte('\n')
	_, err := fmt.Fprint(w, b.String())
	return err
}

// padding returns whitespace as wide on screen as line[:col], keeping tabs.
func padding(line string, col int) string {
	col = min(col, len(line))
	var b strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
		}
	}
	return b.String()
}

// locate finds the source line containing span.Begin and returns it with
// the byte column of the span inside the line and the display width of the
// span clipped to the end of the line.
func locate(source string, span Span) (string, int, int) {
	begin := min(max(span.Begin, 0), len(source))
	start := strings.LastIndexByte(source[:begin], '\n') + 1
	end := strings.IndexByte(source[begin:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += begin
	}
	line := strings.TrimRight(source[start:end], "\r")
	col := begin - start
	width := 1
	if stop := min(span.End, start+len(line)); stop > begin {
		width = max(runewidth.StringWidth(source[begin:stop]), 1)
	}
	return line, col, width
}
